package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/bip32"
)

func TestOptionsFromViper(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]interface{}
		signers   int
		wantError bool
	}{
		{"defaults", map[string]interface{}{"parties": 3, "threshold": 2}, 2, false},
		{"all signers", map[string]interface{}{"parties": 3, "threshold": 2, "signers": 3}, 3, false},
		{"no parties", map[string]interface{}{"parties": 0, "threshold": 0}, 0, true},
		{"threshold too large", map[string]interface{}{"parties": 3, "threshold": 4}, 0, true},
		{"too few signers", map[string]interface{}{"parties": 3, "threshold": 2, "signers": 1}, 0, true},
		{"recovery without spare party", map[string]interface{}{"parties": 2, "threshold": 2, "recover": true}, 0, true},
		{"hardened path", map[string]interface{}{"parties": 3, "threshold": 2, "derive": "m/0'"}, 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			for k, v := range tt.values {
				viper.Set(k, v)
			}
			opts, err := optionsFromViper()
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.signers, opts.Signers)
		})
	}
}

func TestSimulate(t *testing.T) {
	if testing.Short() {
		t.Skip("generates Paillier keys")
	}
	path, err := bip32.ParsePath("m/0/7")
	require.NoError(t, err)
	dir := t.TempDir()
	opts := &options{
		Parties:   3,
		Threshold: 2,
		Signers:   2,
		Message:   "hello",
		Derive:    path,
		Export:    dir,
		Metrics:   true,
		Recover:   true,
	}

	rep, err := simulate(context.Background(), opts, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, rep.PublicKey, 33)
	assert.Len(t, rep.Address, 20)
	assert.Len(t, rep.Signature, 65)
	assert.NotEqual(t, rep.KeygenSSID, rep.SignSSID)
	assert.NotEmpty(t, rep.RecoverSSID)
	assert.NotEmpty(t, rep.Metrics)

	require.Len(t, rep.Exported, 3)
	for _, file := range rep.Exported {
		assert.Equal(t, dir, filepath.Dir(file))
		info, err := os.Stat(file)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	var out bytes.Buffer
	rep.print(&out)
	assert.Contains(t, out.String(), "path:         m/0/7")
	assert.Contains(t, out.String(), "address:      0x")
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := simulate(ctx, &options{Parties: 2, Threshold: 1, Signers: 1, Message: "hello"}, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}
