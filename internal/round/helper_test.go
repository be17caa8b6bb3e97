package round_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/test"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

func TestNewSession(t *testing.T) {
	RNumber := round.Number(4)
	T := 20
	N := 26
	partyIDs := test.PartyIDs(N)
	selfID := partyIDs[0]
	tests := []struct {
		name      string
		selfID    party.ID
		partyIDs  []party.ID
		threshold int
		group     curve.Curve
		wantErr   bool
	}{
		{"0 t", selfID, partyIDs, 0, curve.Secp256k1{}, true},
		{"-1 t", selfID, partyIDs, -1, curve.Secp256k1{}, true},
		{"invalid selfID", "", partyIDs, T, curve.Secp256k1{}, true},
		{"absent selfID", "zz", partyIDs, T, curve.Secp256k1{}, true},
		{"duplicate selfID", selfID, append(partyIDs.Copy(), selfID), T, curve.Secp256k1{}, true},
		{"duplicate partyIDs", selfID, append(partyIDs.Copy(), partyIDs...), T, curve.Secp256k1{}, true},
		{"zero scalar ID", selfID, append(partyIDs.Copy(), party.ID("\x00")), T, curve.Secp256k1{}, true},
		{"threshold N+1", selfID, partyIDs, N + 1, curve.Secp256k1{}, true},
		{"threshold N", selfID, partyIDs, N, curve.Secp256k1{}, false},
		{"threshold T with T-1 parties", selfID, partyIDs[:T-1], T, curve.Secp256k1{}, true},
		{"no group", selfID, partyIDs, T, nil, true},
		{"valid", selfID, partyIDs, T, curve.Secp256k1{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := round.Info{
				ProtocolID:       "TEST",
				FinalRoundNumber: RNumber,
				SelfID:           tt.selfID,
				PartyIDs:         tt.partyIDs,
				Threshold:        tt.threshold,
				Group:            tt.group,
			}
			_, err := round.NewSession(info, nil, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSession_Deterministic(t *testing.T) {
	ids := test.PartyIDs(5)
	permuted := []party.ID{ids[3], ids[0], ids[4], ids[2], ids[1]}
	aux := &hash.BytesWithDomain{TheDomain: "aux", Bytes: []byte{1, 2, 3}}

	info := round.Info{
		ProtocolID:       "TEST",
		FinalRoundNumber: 4,
		SelfID:           ids[0],
		PartyIDs:         ids,
		Threshold:        3,
		Group:            curve.Secp256k1{},
	}
	h1, err := round.NewSession(info, []byte("session"), nil, aux)
	require.NoError(t, err)

	info.PartyIDs = permuted
	info.SelfID = ids[2]
	h2, err := round.NewSession(info, []byte("session"), nil, aux)
	require.NoError(t, err)
	assert.Equal(t, h1.SSID(), h2.SSID(), "SSID must not depend on the configured order or on the local party")
	assert.Len(t, h1.SSID(), hash.DigestLengthBytes)
	assert.Equal(t, h1.PartyIDs(), h2.PartyIDs())

	h3, err := round.NewSession(info, []byte("other session"), nil, aux)
	require.NoError(t, err)
	assert.NotEqual(t, h1.SSID(), h3.SSID())

	info.Threshold = 2
	h4, err := round.NewSession(info, []byte("session"), nil, aux)
	require.NoError(t, err)
	assert.NotEqual(t, h1.SSID(), h4.SSID())
}

func TestHelper_UpdateHashState(t *testing.T) {
	ids := test.PartyIDs(3)
	info := round.Info{
		ProtocolID:       "TEST",
		FinalRoundNumber: 4,
		SelfID:           ids[0],
		PartyIDs:         ids,
		Threshold:        2,
		Group:            curve.Secp256k1{},
	}
	h, err := round.NewSession(info, nil, nil)
	require.NoError(t, err)
	ssid := h.SSID()
	before := h.HashForID(ids[1]).Sum()
	assert.NotEqual(t, before, h.HashForID(ids[2]).Sum())

	h.UpdateHashState(&hash.BytesWithDomain{TheDomain: "RID", Bytes: []byte{42}})
	assert.NotEqual(t, before, h.HashForID(ids[1]).Sum())
	assert.Equal(t, ssid, h.SSID(), "the SSID itself is fixed at construction")
	assert.Equal(t, ids.Remove(ids[0]), h.OtherPartyIDs())
}
