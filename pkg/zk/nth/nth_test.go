package zknth

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/zk"
)

func TestNth(t *testing.T) {
	N := zk.VerifierPaillierPublic
	NMod := N.N()
	rho := sample.UnitModN(rand.Reader, NMod)
	r := N.ModulusSquared().Exp(rho, NMod.Nat())

	public := Public{N: N, R: r}
	proof := NewProof(hash.New(), public, Private{Rho: rho})
	assert.True(t, proof.Verify(hash.New(), public))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), public))

	other := N.ModulusSquared().Exp(sample.UnitModN(rand.Reader, NMod), NMod.Nat())
	assert.False(t, proof.Verify(hash.New(), Public{N: N, R: other}), "proof must not verify for another root")
}
