// Package sign implements the CMP threshold signing protocol.
//
// Any set of at least Threshold parties holding a config.Config produced by keygen can
// jointly sign a 32 byte digest. The protocol runs five rounds and outputs an *ecdsa.Signature.
package sign

import (
	"fmt"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

const (
	protocolSignID                  = "cmp/sign"
	protocolSignRounds round.Number = 4

	// DigestLength is the length of the message digests this protocol signs.
	DigestLength = 32
)

// StartSign returns a StartFunc for signing message between signers.
// message must be a 32 byte digest.
func StartSign(c *config.Config, signers []party.ID, message []byte, pl *pool.Pool) protocol.StartFunc {
	return StartSignWithTranscript(c, signers, message, pl, nil)
}

// StartSignWithTranscript is like StartSign, but records every verified proof in t
// so that it can be audited once the protocol is over. t may be nil.
func StartSignWithTranscript(c *config.Config, signers []party.ID, message []byte, pl *pool.Pool, t *Transcript) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if c == nil {
			return nil, fmt.Errorf("sign: %w", config.ErrMissingField)
		}
		if len(message) != DigestLength {
			return nil, fmt.Errorf("%w: got %d bytes", errMessageLength, len(message))
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if !c.CanSign(signers) {
			return nil, errSigners
		}

		group := c.Group
		info := round.Info{
			ProtocolID:       protocolSignID,
			FinalRoundNumber: protocolSignRounds,
			SelfID:           c.ID,
			PartyIDs:         signers,
			Threshold:        c.Threshold,
			Group:            group,
		}

		helper, err := round.NewSession(info, sessionID, pl, c, types.SigningMessage(message))
		if err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}

		// Scale public data
		T := helper.N()
		ECDSA := make(map[party.ID]curve.Point, T)
		Paillier := make(map[party.ID]*paillier.PublicKey, T)
		Pedersen := make(map[party.ID]*pedersen.Parameters, T)
		PublicKey := group.NewPoint()
		lagrange := polynomial.Lagrange(group, helper.PartyIDs())
		// Scale own secret
		SecretECDSA := group.NewScalar().Set(lagrange[c.ID]).Mul(c.ECDSA)
		for _, j := range helper.PartyIDs() {
			public := c.Public[j]
			// scale public key share
			ECDSA[j] = lagrange[j].Act(public.ECDSA)
			Paillier[j] = public.Paillier
			Pedersen[j] = public.Pedersen
			PublicKey = PublicKey.Add(ECDSA[j])
		}

		return &round0{
			Helper:         helper,
			PublicKey:      PublicKey,
			SecretECDSA:    SecretECDSA,
			SecretPaillier: c.Paillier,
			Paillier:       Paillier,
			Pedersen:       Pedersen,
			ECDSA:          ECDSA,
			Message:        append([]byte(nil), message...),
			Transcript:     t,
		}, nil
	}
}
