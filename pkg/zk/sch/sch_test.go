package zksch

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
)

func TestSchPass(t *testing.T) {
	group := curve.Secp256k1{}

	a := NewRandomness(rand.Reader, group, nil)
	x, X := sample.ScalarPointPair(rand.Reader, group)

	proof := a.Prove(hash.New(), X, x, nil)
	assert.True(t, proof.Verify(hash.New(), X, a.Commitment(), nil), "failed to verify response")
	assert.True(t, proof.Verify(hash.New(), X, a.Commitment(), group.NewBasePoint()), "nil generator means the base point")

	fullProof := NewProof(hash.New(), X, x, nil)
	assert.True(t, fullProof.Verify(hash.New(), X, nil), "failed to verify proof")

	out, err := cbor.Marshal(fullProof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := EmptyProof(group)
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), X, nil), "failed to verify unmarshalled proof")
}

func TestSchFail(t *testing.T) {
	group := curve.Secp256k1{}

	a := NewRandomness(rand.Reader, group, nil)
	x, X := group.NewScalar(), group.NewPoint()

	assert.Nil(t, a.Prove(hash.New(), X, x, nil), "proof should be nil for the identity")

	var nilProof *Proof
	assert.False(t, nilProof.Verify(hash.New(), X, nil))

	y, Y := sample.ScalarPointPair(rand.Reader, group)
	proof := NewProof(hash.New(), Y, y, nil)
	_, Z := sample.ScalarPointPair(rand.Reader, group)
	assert.False(t, proof.Verify(hash.New(), Z, nil), "proof for Y should not verify against Z")

	G := sample.ScalarUnit(rand.Reader, group).ActOnBase()
	assert.False(t, proof.Verify(hash.New(), Y, G), "proof should be bound to its generator")
}
