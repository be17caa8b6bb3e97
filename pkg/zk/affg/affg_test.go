package zkaffg

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/zk"
)

func newAffG(t *testing.T) (curve.Curve, Public, Private) {
	t.Helper()
	group := curve.Secp256k1{}

	verifierPaillier := zk.VerifierPaillierPublic
	proverPaillier := zk.ProverPaillierPublic

	c := new(saferith.Int).SetUint64(12)
	C, _ := verifierPaillier.Enc(c)

	x := sample.IntervalL(rand.Reader)
	X := group.NewScalar().SetNat(x.Mod(group.Order())).ActOnBase()

	y := sample.IntervalLPrime(rand.Reader)
	Y, rhoY := proverPaillier.Enc(y)

	tmp := C.Clone().Mul(verifierPaillier, x)
	D, rho := verifierPaillier.Enc(y)
	D.Add(verifierPaillier, tmp)

	public := Public{
		Kv:       C,
		Dv:       D,
		Fp:       Y,
		Xp:       X,
		Prover:   proverPaillier,
		Verifier: verifierPaillier,
		Aux:      zk.Pedersen,
	}
	private := Private{
		X: x,
		Y: y,
		S: rho,
		R: rhoY,
	}
	return group, public, private
}

func TestAffG(t *testing.T) {
	group, public, private := newAffG(t)

	proof := NewProof(group, hash.New(), public, private)
	assert.True(t, proof.Verify(hash.New(), public))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := Empty(group)
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	out2, err := cbor.Marshal(proof2)
	require.NoError(t, err, "failed to marshal 2nd proof")
	proof3 := Empty(group)
	require.NoError(t, cbor.Unmarshal(out2, proof3), "failed to unmarshal 2nd proof")

	assert.True(t, proof3.Verify(hash.New(), public))
}

func TestAffG_WrongStatement(t *testing.T) {
	group, public, private := newAffG(t)
	proof := NewProof(group, hash.New(), public, private)

	// a different X breaks the discrete log relation
	wrongX := public
	wrongX.Xp = sample.ScalarUnit(rand.Reader, group).ActOnBase()
	assert.False(t, proof.Verify(hash.New(), wrongX))

	// a rerandomized D no longer matches the nonce
	wrongD := public
	wrongD.Dv = public.Dv.Clone()
	wrongD.Dv.Randomize(public.Verifier, nil)
	assert.False(t, proof.Verify(hash.New(), wrongD))

	empty := Empty(group)
	assert.False(t, empty.Verify(hash.New(), public))
}
