package types

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRID_XOR(t *testing.T) {
	a, err := NewRID(rand.Reader)
	require.NoError(t, err)
	b, err := NewRID(rand.Reader)
	require.NoError(t, err)

	c := a.Copy()
	c.XOR(b)
	c.XOR(b)
	assert.True(t, bytes.Equal(a, c), "xor twice should be the identity")

	c.XOR(a)
	assert.Error(t, c.Validate(), "a ^ a should be rejected as zero")
	assert.NoError(t, a.Validate())
	assert.Error(t, RID(nil).Validate())
	assert.Error(t, RID([]byte{1, 2, 3}).Validate())
}
