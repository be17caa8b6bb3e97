package hash

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
)

func TestHash_WriteAny(t *testing.T) {
	testFunc := func(vs ...interface{}) error {
		return New().WriteAny(vs...)
	}
	i := new(saferith.Int).SetUint64(35)
	n := new(saferith.Nat).SetUint64(35)
	m := saferith.ModulusFromUint64(35)
	group := curve.Secp256k1{}

	assert.NoError(t, testFunc(i, n, m))
	assert.NoError(t, testFunc(sample.Scalar(rand.Reader, group)))
	assert.NoError(t, testFunc(sample.Scalar(rand.Reader, group).ActOnBase()))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(types.ThresholdWrapper(3)))
	assert.Error(t, testFunc(42))
	assert.Error(t, testFunc([]byte(nil)))
}

func TestHash_WriteAny_Collision(t *testing.T) {
	sum := func(vs ...interface{}) []byte {
		h := New()
		require.NoError(t, h.WriteAny(vs...))
		return h.Sum()
	}
	h1 := sum([]byte("1)(saferith.Nat\x02*data_added*"), []byte("3"))
	h2 := sum([]byte("1"), []byte("*data_added*)(saferith.Nat\x023"))
	assert.NotEqual(t, h1, h2)

	h3 := sum([]byte("ab"), []byte("c"))
	h4 := sum([]byte("a"), []byte("bc"))
	assert.NotEqual(t, h3, h4)
}

func TestHash_Fork(t *testing.T) {
	h := New()
	_ = h.WriteAny([]byte("base"))
	before := h.Clone().Sum()
	forked := h.Fork([]byte("extra")).Sum()
	assert.Equal(t, before, h.Sum(), "Fork must not modify the receiver")
	assert.NotEqual(t, before, forked)
}

func TestCommit(t *testing.T) {
	h := New()
	data := []byte("commit to me")
	c, d, err := h.Commit(data, types.ThresholdWrapper(2))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.NoError(t, d.Validate())

	assert.True(t, h.Decommit(c, d, data, types.ThresholdWrapper(2)))
	assert.False(t, h.Decommit(c, d, data, types.ThresholdWrapper(3)))

	tampered := append(Decommitment{}, d...)
	tampered[0] ^= 1
	assert.False(t, h.Decommit(c, tampered, data, types.ThresholdWrapper(2)))
}
