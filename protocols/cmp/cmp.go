// Package cmp gathers the entry points of the CMP threshold ECDSA protocols.
package cmp

import (
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/keygen"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/recovery"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/sign"
)

type (
	Config        = config.Config
	MinimalConfig = config.MinimalConfig
)

// EmptyConfig creates an empty Config with a fixed group, ready for unmarshalling.
func EmptyConfig(group curve.Curve) *Config {
	return config.EmptyConfig(group)
}

// Keygen generates a new shared ECDSA key over the curve defined by `group`. After a successful execution,
// all participants posses a unique share of this key, as well as auxiliary parameters required during signing.
//
// Any threshold of the participants can later sign.
func Keygen(group curve.Curve, selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool) protocol.StartFunc {
	return keygen.StartKeygen(group, participants, threshold, selfID, pl)
}

// Refresh allows the parties to refresh all existing cryptographic keys from a previously generated Config.
// The group's ECDSA public key remains the same, but any previous shares are rendered useless.
// Returns *cmp.Config if successful.
func Refresh(c *Config, pl *pool.Pool) protocol.StartFunc {
	var minimal *MinimalConfig
	if c != nil {
		minimal = c.Minimal()
	}
	return keygen.StartRefresh(minimal, pl)
}

// Recover restores the ECDSA share of the party lost, using the shares of at least Threshold helpers.
// The lost party passes its Config without ECDSA share.
// Returns *cmp.Config if successful, which for the lost party holds the restored share.
func Recover(c *Config, helpers []party.ID, lost party.ID, pl *pool.Pool) protocol.StartFunc {
	return recovery.Start(c, helpers, lost, pl)
}

// Sign generates an ECDSA signature for `messageHash` among the given `signers`.
// Returns *ecdsa.Signature if successful.
func Sign(c *Config, signers []party.ID, messageHash []byte, pl *pool.Pool) protocol.StartFunc {
	return sign.StartSign(c, signers, messageHash, pl)
}
