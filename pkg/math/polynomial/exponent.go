package polynomial

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
)

// Exponent represents a polynomial whose coefficients are points on an elliptic curve.
type Exponent struct {
	group curve.Curve
	// IsConstant indicates that the constant coefficient is the identity.
	// We do this so that we never need to send an encoded Identity point, and thus consider it invalid
	IsConstant bool
	// coefficients is a list of curve.Point representing the coefficients of a polynomial over an elliptic curve.
	coefficients []curve.Point
}

// NewPolynomialExponent generates an Exponent polynomial F(X) = [secret + a₁•X + … + aₜ•Xᵗ]•G,
// with coefficients in 𝔾, and degree t.
func NewPolynomialExponent(polynomial *Polynomial) *Exponent {
	p := &Exponent{
		group:        polynomial.group,
		IsConstant:   polynomial.coefficients[0].IsZero(),
		coefficients: make([]curve.Point, 0, len(polynomial.coefficients)),
	}

	for i, c := range polynomial.coefficients {
		if p.IsConstant && i == 0 {
			continue
		}
		p.coefficients = append(p.coefficients, c.ActOnBase())
	}

	return p
}

// Evaluate returns F(x) = [secret + a₁•x + … + aₜ•xᵗ]•G.
func (p *Exponent) Evaluate(x curve.Scalar) curve.Point {
	result := p.group.NewPoint()

	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// Bₙ₋₁ = [x]Bₙ  + Aₙ₋₁
		result = x.Act(result).Add(p.coefficients[i])
	}

	if p.IsConstant {
		// result is B₁
		// we want B₀ = [x]B₁ + A₀ = [x]B₁
		result = x.Act(result)
	}

	return result
}

// Degree returns the degree t of the polynomial.
func (p *Exponent) Degree() int {
	if p.IsConstant {
		return len(p.coefficients)
	}
	return len(p.coefficients) - 1
}

func (p *Exponent) add(q *Exponent) error {
	if len(p.coefficients) != len(q.coefficients) {
		return errors.New("q is not the same length as p")
	}

	if p.IsConstant != q.IsConstant {
		return errors.New("p and q differ in 'IsConstant'")
	}

	for i := 0; i < len(p.coefficients); i++ {
		p.coefficients[i] = p.coefficients[i].Add(q.coefficients[i])
	}

	return nil
}

// Sum creates a new Polynomial in the Exponent, by summing a slice of existing ones.
func Sum(polynomials []*Exponent) (*Exponent, error) {
	var err error

	// Create the new polynomial by copying the first one given
	summed := polynomials[0].copy()

	// we assume all polynomials have the same degree as the first
	for j := 1; j < len(polynomials); j++ {
		err = summed.add(polynomials[j])
		if err != nil {
			return nil, err
		}
	}
	return summed, nil
}

func (p *Exponent) copy() *Exponent {
	q := &Exponent{
		group:        p.group,
		IsConstant:   p.IsConstant,
		coefficients: make([]curve.Point, len(p.coefficients)),
	}
	for i := 0; i < len(p.coefficients); i++ {
		q.coefficients[i] = p.coefficients[i]
	}
	return q
}

// Equal returns true if p ≡ other.
func (p *Exponent) Equal(other Exponent) bool {
	if p.IsConstant != other.IsConstant {
		return false
	}
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := 0; i < len(p.coefficients); i++ {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// Constant returns the constant coefficient of the polynomial 'in the exponent'.
func (p *Exponent) Constant() curve.Point {
	c := p.group.NewPoint()
	if p.IsConstant {
		return c
	}
	return p.coefficients[0]
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (p *Exponent) WriteTo(w io.Writer) (int64, error) {
	if p == nil {
		return 0, io.ErrUnexpectedEOF
	}
	nAll := int64(0)
	// write the number of coefficients
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[:4], uint32(len(p.coefficients)))
	if p.IsConstant {
		buf[4] = 1
	}
	n, err := w.Write(buf)
	nAll += int64(n)
	if err != nil {
		return nAll, err
	}

	// write all coefficients
	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nAll, err
		}
		n, err = w.Write(data)
		nAll += int64(n)
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*Exponent) Domain() string {
	return "Exponent"
}

// EmptyExponent returns an Exponent whose coefficients will be filled in by decoding.
func EmptyExponent(group curve.Curve) *Exponent {
	return &Exponent{group: group}
}

type exponentWire struct {
	IsConstant   bool
	Coefficients [][]byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Exponent) MarshalBinary() ([]byte, error) {
	wire := exponentWire{
		IsConstant:   p.IsConstant,
		Coefficients: make([][]byte, 0, len(p.coefficients)),
	}
	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		wire.Coefficients = append(wire.Coefficients, data)
	}
	return cbor.Marshal(wire)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The receiver must have been created with EmptyExponent so that its group is known.
func (p *Exponent) UnmarshalBinary(data []byte) error {
	if p.group == nil {
		return errors.New("polynomial.Exponent: unmarshal into exponent without group")
	}
	var wire exponentWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.IsConstant = wire.IsConstant
	p.coefficients = make([]curve.Point, 0, len(wire.Coefficients))
	for _, raw := range wire.Coefficients {
		c := p.group.NewPoint()
		if err := c.UnmarshalBinary(raw); err != nil {
			return err
		}
		p.coefficients = append(p.coefficients, c)
	}
	return nil
}
