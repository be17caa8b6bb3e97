package bip32

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
)

func mustScalar(t *testing.T, s string) curve.Scalar {
	data, err := hex.DecodeString(s)
	require.NoError(t, err)
	x := curve.Secp256k1{}.NewScalar()
	require.NoError(t, x.UnmarshalBinary(data))
	return x
}

func mustHex(t *testing.T, s string) []byte {
	data, err := hex.DecodeString(s)
	require.NoError(t, err)
	return data
}

// Test vector 2 of BIP-32: m -> m/0 -> m/0/1.
func TestDeriveScalar_Vector(t *testing.T) {
	master := mustScalar(t, "4b03d6fc340455b363f51020ad3ecca4f0850280cf436c70c727923f6db46c3e")
	chain := mustHex(t, "60499f801b896d83179a4374aeb7822aaeaceaa0db1f85ee3e904c4defbd9689")

	tweak, childChain, err := DeriveScalar(master.ActOnBase(), chain, 0)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "f0909affaa7ee7abe5dd4e100598d4dc53cd709d5a5c2cac40e7412f232f7c9c"), childChain)
	child := curve.Secp256k1{}.NewScalar().Set(master).Add(tweak)
	assert.True(t, child.Equal(mustScalar(t, "abe74a98f6c7eabee0428f53798f0ab8aa1bd37873999041703c742f15ac7e1e")))

	path, err := ParsePath("m/0/1")
	require.NoError(t, err)
	total, finalChain, err := DerivePath(master.ActOnBase(), chain, path)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "8d5e25bfe038e4ef37e2c5ec963b7a7c7a745b4319bff873fc40f1a52c7d6fd1"), finalChain)
	grandchild := curve.Secp256k1{}.NewScalar().Set(master).Add(total)
	assert.True(t, grandchild.Equal(mustScalar(t, "fb1e5b0be9e72c9e158b33ad5d68c59e6d5b853ec56beb0b7ee1c13e5e200e47")))
}

func TestDeriveScalar_Rejects(t *testing.T) {
	public := curve.Secp256k1{}.NewBasePoint()
	chain := make([]byte, 32)

	_, _, err := DeriveScalar(public, chain, HardenedOffset)
	assert.ErrorIs(t, err, ErrHardened)
	_, _, err = DeriveScalar(public, chain[:31], 0)
	assert.ErrorIs(t, err, ErrChainKey)
	_, _, err = DeriveScalar(curve.Secp256k1{}.NewPoint(), chain, 0)
	assert.Error(t, err)
}

func TestParsePath(t *testing.T) {
	for text, want := range map[string]Path{
		"":        {},
		"m":       {},
		"m/0":     {0},
		"1/2/3":   {1, 2, 3},
		"m/44/60": {44, 60},
	} {
		got, err := ParsePath(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
	for _, text := range []string{"m/0'", "m/1h", "m/x", "m//1", "m/2147483648"} {
		_, err := ParsePath(text)
		assert.Error(t, err, text)
	}
	assert.Equal(t, "m/1/2", Path{1, 2}.String())
}
