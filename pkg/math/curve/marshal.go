package curve

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// curveFromName returns the Curve with the given name.
func curveFromName(name string) (Curve, error) {
	switch name {
	case Secp256k1{}.Name():
		return Secp256k1{}, nil
	default:
		return nil, fmt.Errorf("curve: unknown curve %q", name)
	}
}

type elementWithName struct {
	Name string
	Data []byte
}

// MarshallableScalar wraps a Scalar so that it can be encoded without knowing
// its Curve in advance.
type MarshallableScalar struct {
	Scalar Scalar
}

// NewMarshallableScalar wraps s.
func NewMarshallableScalar(s Scalar) *MarshallableScalar {
	return &MarshallableScalar{s}
}

func (m *MarshallableScalar) MarshalBinary() ([]byte, error) {
	if m.Scalar == nil {
		return nil, errors.New("curve.MarshallableScalar: nil scalar")
	}
	data, err := m.Scalar.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&elementWithName{m.Scalar.Curve().Name(), data})
}

func (m *MarshallableScalar) UnmarshalBinary(data []byte) error {
	var x elementWithName
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	group, err := curveFromName(x.Name)
	if err != nil {
		return err
	}
	m.Scalar = group.NewScalar()
	return m.Scalar.UnmarshalBinary(x.Data)
}

// MarshallablePoint wraps a Point so that it can be encoded without knowing
// its Curve in advance.
type MarshallablePoint struct {
	Point Point
}

// NewMarshallablePoint wraps p.
func NewMarshallablePoint(p Point) *MarshallablePoint {
	return &MarshallablePoint{p}
}

func (m *MarshallablePoint) MarshalBinary() ([]byte, error) {
	if m.Point == nil {
		return nil, errors.New("curve.MarshallablePoint: nil point")
	}
	data, err := m.Point.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&elementWithName{m.Point.Curve().Name(), data})
}

func (m *MarshallablePoint) UnmarshalBinary(data []byte) error {
	var x elementWithName
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	group, err := curveFromName(x.Name)
	if err != nil {
		return err
	}
	m.Point = group.NewPoint()
	return m.Point.UnmarshalBinary(x.Data)
}

// FromName returns the Curve with the given name, as returned by Curve.Name.
func FromName(name string) (Curve, error) {
	return curveFromName(name)
}
