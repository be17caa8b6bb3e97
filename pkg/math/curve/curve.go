package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents the information about a group used for threshold signing.
//
// Scalars and Points of a curve all come from the same Curve, and operations
// on elements of two different curves panic.
type Curve interface {
	// NewPoint returns the identity element of the group.
	NewPoint() Point
	// NewBasePoint returns the standard generator of the group.
	NewBasePoint() Point
	// NewScalar returns the zero scalar.
	NewScalar() Scalar
	// Name returns the name of the curve, used for domain separation and encoding.
	Name() string
	// ScalarBits returns the number of significant bits in a scalar.
	ScalarBits() int
	// SafeScalarBytes returns the number of bytes to sample to obtain a uniform scalar
	// after reduction.
	SafeScalarBytes() int
	// Order returns the order of the group.
	Order() *saferith.Modulus
}

// Scalar represents an element of the field of scalars of a Curve.
//
// The arithmetic methods modify the receiver and return it, to allow chaining.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	Negate() Scalar
	IsOverHalfOrder() bool
	Equal(Scalar) bool
	IsZero() bool
	Set(Scalar) Scalar
	SetNat(*saferith.Nat) Scalar
	Act(Point) Point
	ActOnBase() Point
}

// Point represents an element of the group of a Curve.
//
// Unlike Scalar, the methods of a Point return new values.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Point) Point
	Sub(Point) Point
	Set(Point) Point
	Negate() Point
	Equal(Point) bool
	IsIdentity() bool
	// XScalar returns the x coordinate of the point, reduced modulo the group order.
	XScalar() Scalar
}

// MakeInt converts a scalar into a saferith.Int, in the range [0, q).
func MakeInt(s Scalar) *saferith.Int {
	bytes, err := s.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return new(saferith.Int).SetBytes(bytes)
}

// FromHash converts a hash value to a Scalar.
//
// There is some disagreement about how this should be done.
// [NSA] suggests that this is done in the obvious
// manner, but [SECG] truncates the hash to the bit-length of the curve order
// first. We follow [SECG] because that's what OpenSSL does. Additionally,
// OpenSSL right shifts excess bits from the number if the hash is too large
// and we mirror that too.
//
// Taken from crypto/ecdsa.
func FromHash(group Curve, h []byte) Scalar {
	order := group.Order()
	orderBits := order.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(h) > orderBytes {
		h = h[:orderBytes]
	}
	s := new(saferith.Nat).SetBytes(h)
	excess := len(h)*8 - orderBits
	if excess > 0 {
		s.Rsh(s, uint(excess), -1)
	}
	return group.NewScalar().SetNat(s)
}
