package zkprm

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

func TestPrm(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	sk := zk.VerifierPaillierSecret
	ped, lambda := sk.GeneratePedersen()

	public := Public{
		N: ped.N(),
		S: ped.S(),
		T: ped.T(),
	}

	proof := NewProof(Private{
		Lambda: lambda,
		Phi:    sk.Phi(),
		P:      sk.P(),
		Q:      sk.Q(),
	}, hash.New(), public, pl)
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
}

func TestPrm_WrongLambda(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	sk := zk.VerifierPaillierSecret
	ped, lambda := sk.GeneratePedersen()
	public := Public{N: ped.N(), S: ped.S(), T: ped.T()}

	wrongLambda := new(saferith.Nat).Add(lambda, new(saferith.Nat).SetUint64(1), -1)
	proof := NewProof(Private{
		Lambda: wrongLambda,
		Phi:    sk.Phi(),
		P:      sk.P(),
		Q:      sk.Q(),
	}, hash.New(), public, pl)
	assert.False(t, proof.Verify(public, hash.New(), pl))

	var nilProof *Proof
	assert.False(t, nilProof.Verify(public, hash.New(), pl))
}
