package round

import (
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// Info holds the static description of a protocol execution.
type Info struct {
	// ProtocolID is an identifier for this protocol
	ProtocolID string
	// FinalRoundNumber is the index of the last round, which outputs the result.
	FinalRoundNumber Number
	// SelfID is this party's ID.
	SelfID party.ID
	// PartyIDs is a slice of participating parties in this protocol, in any order.
	PartyIDs []party.ID
	// Threshold is the number of parties needed to produce a signature.
	Threshold int
	// Group returns the group used for this protocol execution.
	Group curve.Curve
}
