package pedersen

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/arith"
)

// toy parameters over N = 23⋅47, with t = 4 and s = t³.
func toyParameters() *Parameters {
	p, q := new(saferith.Nat).SetUint64(23), new(saferith.Nat).SetUint64(47)
	n := arith.ModulusFromFactors(p, q)
	t := new(saferith.Nat).SetUint64(4)
	s := new(saferith.Nat).Exp(t, new(saferith.Nat).SetUint64(3), n.Modulus)
	return New(n, s, t)
}

func TestValidateParameters(t *testing.T) {
	ped := toyParameters()
	assert.NoError(t, ValidateParameters(ped.N(), ped.S(), ped.T()))
	assert.ErrorIs(t, ValidateParameters(ped.N(), ped.T(), ped.T()), ErrSEqualT)
	assert.ErrorIs(t, ValidateParameters(ped.N(), nil, ped.T()), ErrNilFields)
	assert.ErrorIs(t, ValidateParameters(ped.N(), new(saferith.Nat).SetUint64(23), ped.T()), ErrNotValidModN)
}

func TestCommitVerify(t *testing.T) {
	ped := toyParameters()
	x := new(saferith.Int).SetUint64(5)
	y := new(saferith.Int).SetUint64(7)
	alpha := new(saferith.Int).SetUint64(11)
	beta := new(saferith.Int).SetUint64(13)
	e := new(saferith.Int).SetUint64(3)

	// S = sˣtʸ, T = sᵅtᵝ, and we check s^(α+ex) t^(β+ey) = T Sᵉ
	S := ped.Commit(x, y)
	T := ped.Commit(alpha, beta)
	z1 := new(saferith.Int).Mul(e, x, -1)
	z1.Add(z1, alpha, -1)
	z2 := new(saferith.Int).Mul(e, y, -1)
	z2.Add(z2, beta, -1)
	assert.True(t, ped.Verify(z1, z2, e, T, S))
	assert.False(t, ped.Verify(z2, z1, e, T, S))
	assert.False(t, ped.Verify(z1, z2, e, nil, S))
}
