package curve

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomScalar(t *testing.T, group Curve) Scalar {
	buf := make([]byte, group.SafeScalarBytes())
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return group.NewScalar().SetNat(new(saferith.Nat).SetBytes(buf))
}

type marshalTester struct {
	S *MarshallableScalar
	P *MarshallablePoint
}

func TestMarshall(t *testing.T) {
	group := Secp256k1{}
	s := marshalTester{
		S: NewMarshallableScalar(group.NewScalar().SetNat(new(saferith.Nat).SetUint64(0xED))),
		P: NewMarshallablePoint(group.NewBasePoint()),
	}
	data, err := cbor.Marshal(s)
	require.NoError(t, err)
	var s2 marshalTester
	require.NoError(t, cbor.Unmarshal(data, &s2))
	assert.True(t, s.S.Scalar.Equal(s2.S.Scalar))
	assert.True(t, s.P.Point.Equal(s2.P.Point))
}

func TestPoint_Binary(t *testing.T) {
	group := Secp256k1{}
	for i := 0; i < 10; i++ {
		p := randomScalar(t, group).ActOnBase()
		data, err := p.MarshalBinary()
		require.NoError(t, err)
		q := group.NewPoint()
		require.NoError(t, q.UnmarshalBinary(data))
		assert.True(t, p.Equal(q))
	}

	identity := group.NewPoint()
	data, err := identity.MarshalBinary()
	require.NoError(t, err)
	decoded := group.NewBasePoint()
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, decoded.IsIdentity())

	bad := make([]byte, 33)
	bad[0] = 0x05
	assert.Error(t, group.NewPoint().UnmarshalBinary(bad))
}

func TestGroupLaws(t *testing.T) {
	group := Secp256k1{}
	a, b := randomScalar(t, group), randomScalar(t, group)

	// (a+b)•G = a•G + b•G
	sum := group.NewScalar().Set(a).Add(b)
	assert.True(t, sum.ActOnBase().Equal(a.ActOnBase().Add(b.ActOnBase())))

	// (a-b)•G = a•G - b•G
	diff := group.NewScalar().Set(a).Sub(b)
	assert.True(t, diff.ActOnBase().Equal(a.ActOnBase().Sub(b.ActOnBase())))

	// a•(b•G) = (ab)•G
	prod := group.NewScalar().Set(a).Mul(b)
	assert.True(t, a.Act(b.ActOnBase()).Equal(prod.ActOnBase()))

	// a • a⁻¹ = 1
	one := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	inv := group.NewScalar().Set(a).Invert()
	assert.True(t, inv.Mul(a).Equal(one))

	// P - P = 0
	P := a.ActOnBase()
	assert.True(t, P.Sub(P).IsIdentity())
	assert.True(t, P.Add(group.NewPoint()).Equal(P))
	assert.True(t, group.NewScalar().Act(P).IsIdentity())
}

func TestFromHash(t *testing.T) {
	group := Secp256k1{}
	h := make([]byte, 64)
	h[0] = 1
	s := FromHash(group, h)
	expected := make([]byte, 32)
	expected[0] = 1
	assert.True(t, s.Equal(group.NewScalar().SetNat(new(saferith.Nat).SetBytes(expected))))
	assert.Equal(t, MakeInt(s).Abs().Bytes()[0], byte(1))
}
