package zkmod

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/zk"
)

func TestMod(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	sk := zk.ProverPaillierSecret
	public := Public{N: sk.N()}
	private := Private{
		P:   sk.P(),
		Q:   sk.Q(),
		Phi: sk.Phi(),
	}
	proof := NewProof(hash.New(), private, public, pl)
	assert.True(t, proof.Verify(public, hash.New(), pl))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	out2, err := cbor.Marshal(proof2)
	require.NoError(t, err, "failed to marshal 2nd proof")
	proof3 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out2, proof3), "failed to unmarshal 2nd proof")

	assert.True(t, proof3.Verify(public, hash.New(), pl))

	proof.W.Add(proof.W, new(saferith.Nat).SetUint64(1), -1)
	assert.False(t, proof.Verify(public, hash.New(), pl), "proof should have failed with a modified W")
}

func TestMod_WrongModulus(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	sk := zk.ProverPaillierSecret
	public := Public{N: sk.N()}
	proof := NewProof(hash.New(), Private{P: sk.P(), Q: sk.Q(), Phi: sk.Phi()}, public, pl)

	other := Public{N: zk.VerifierPaillierPublic.N()}
	assert.False(t, proof.Verify(other, hash.New(), pl))
}

func Test_set4thRoot(t *testing.T) {
	var p, q uint64 = 311, 331
	pHalf := new(saferith.Nat).SetUint64((p - 1) / 2)
	pMod := saferith.ModulusFromUint64(p)
	qHalf := new(saferith.Nat).SetUint64((q - 1) / 2)
	qMod := saferith.ModulusFromUint64(q)
	phi := new(saferith.Nat).SetUint64((p - 1) * (q - 1))
	n := saferith.ModulusFromUint64(p * q)
	y := new(saferith.Nat).SetUint64(502)
	w := new(saferith.Nat).SetUint64(2)

	a, b, x := makeQuadraticResidue(y, w, pHalf, qHalf, n, pMod, qMod)

	e := fourthRootExponent(phi)
	root := new(saferith.Nat).Exp(x, e, n)
	if b {
		y.ModMul(y, w, n)
	}
	if a {
		y.ModNeg(y, n)
	}

	root.Exp(root, new(saferith.Nat).SetUint64(4), n)
	assert.Equal(t, 1, int(root.Eq(y)), "root^4 should be equal to y")
}
