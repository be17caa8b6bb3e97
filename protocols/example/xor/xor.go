// Package xor is a minimal commit-and-reveal protocol which jointly samples a random string.
// It exercises every feature of the round engine with cheap rounds.
package xor

import (
	"fmt"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
)

const (
	protocolID                  = "example/xor"
	protocolRounds round.Number = 2
)

// StartXOR is a function that creates the first round with all necessary information to create a protocol.Context.
func StartXOR(selfID party.ID, partyIDs []party.ID) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: protocolRounds,
			SelfID:           selfID,
			PartyIDs:         partyIDs,
			Threshold:        len(partyIDs),
			Group:            curve.Secp256k1{},
		}
		// create the helper with a description of the protocol
		helper, err := round.NewSession(info, sessionID, nil)
		if err != nil {
			return nil, fmt.Errorf("xor: %w", err)
		}
		return &Round0{Helper: helper}, nil
	}
}
