// Package keygen implements the CMP key generation and key refresh protocols.
//
// Both protocols run the same five rounds. A refresh re-shares an existing secret with a
// zero-constant polynomial, so that the public key and the chain key are preserved
// while every share and every Paillier key is replaced.
package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

const (
	protocolKeygenID               = "cmp/keygen"
	protocolRefreshID              = "cmp/refresh"
	protocolRounds    round.Number = 4
)

// StartKeygen returns a StartFunc for a fresh key generation between partyIDs,
// where threshold shares are required to sign.
func StartKeygen(group curve.Curve, partyIDs []party.ID, threshold int, selfID party.ID, pl *pool.Pool) protocol.StartFunc {
	info := round.Info{
		ProtocolID:       protocolKeygenID,
		FinalRoundNumber: protocolRounds,
		SelfID:           selfID,
		PartyIDs:         partyIDs,
		Threshold:        threshold,
		Group:            group,
	}
	return Start(info, pl)
}

// Start returns a StartFunc for a key generation described by info.
// info.FinalRoundNumber is overwritten.
func Start(info round.Info, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		info.FinalRoundNumber = protocolRounds
		if info.ProtocolID == "" {
			info.ProtocolID = protocolKeygenID
		}
		helper, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, fmt.Errorf("keygen: %w", err)
		}

		group := helper.Group()
		// sample fᵢ(X) deg(fᵢ) = t-1, fᵢ(0) = xᵢ
		constant := sample.Scalar(rand.Reader, group)
		return &round0{
			Helper:    helper,
			VSSSecret: polynomial.NewPolynomial(rand.Reader, group, helper.Threshold()-1, constant),
		}, nil
	}
}

// StartRefresh returns a StartFunc which refreshes the sharing held in c.
// Every party listed in c must take part.
func StartRefresh(c *config.MinimalConfig, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if c == nil {
			return nil, fmt.Errorf("keygen: %w", config.ErrMissingField)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("keygen: %w", err)
		}
		info := round.Info{
			ProtocolID:       protocolRefreshID,
			FinalRoundNumber: protocolRounds,
			SelfID:           c.ID,
			PartyIDs:         c.PartyIDs(),
			Threshold:        c.Threshold,
			Group:            c.Group,
		}
		// the previous sharing is part of the session, so that all parties refresh the same key
		helper, err := round.NewSession(info, sessionID, pl, c)
		if err != nil {
			return nil, fmt.Errorf("keygen: %w", err)
		}

		group := helper.Group()
		previous := make(map[party.ID]curve.Point, len(c.Public))
		for id, X := range c.Public {
			previous[id] = X
		}
		return &round0{
			Helper:                    helper,
			PreviousSecretECDSA:       group.NewScalar().Set(c.ECDSA),
			PreviousPublicSharesECDSA: previous,
			PreviousChainKey:          c.ChainKey.Copy(),
			// fᵢ(X) deg(fᵢ) = t-1, fᵢ(0) = 0
			VSSSecret: polynomial.NewPolynomial(rand.Reader, group, helper.Threshold()-1, group.NewScalar()),
		}, nil
	}
}
