package sign

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	zkaffg "github.com/taurusgroup/cmp-ecdsa/pkg/zk/affg"
	zkenc "github.com/taurusgroup/cmp-ecdsa/pkg/zk/enc"
	zklogstar "github.com/taurusgroup/cmp-ecdsa/pkg/zk/logstar"
)

// Statement names the kind of content recorded in a Transcript.
type Statement string

const (
	// StatementEncryptedShares is the broadcast of Kⱼ and Gⱼ.
	StatementEncryptedShares Statement = "K, G"
	// StatementMtACiphertexts is the broadcast of Γⱼ and of the Delta MtA ciphertexts Dₗⱼ.
	StatementMtACiphertexts Statement = "Gamma, D"
	// StatementDeltaShare is the broadcast of δⱼ and Δⱼ.
	StatementDeltaShare Statement = "delta, Delta"
	// StatementReveal is the broadcast of γⱼ, kⱼ and the αⱼₗ after an inconsistent Δ.
	StatementReveal Statement = "reveal"

	StatementEnc       Statement = "enc(K)"
	StatementAffgDelta Statement = "affg(Delta)"
	StatementAffgChi   Statement = "affg(Chi)"
	StatementLogGamma  Statement = "log*(Gamma)"
	StatementLogDelta  Statement = "log*(Delta)"
)

// Entry is a piece of content accepted during a signing run.
type Entry struct {
	Round     round.Number
	From      party.ID
	Statement Statement
	// Data is the CBOR encoding of the content, as it was accepted.
	Data []byte

	// check verifies Data again. It is nil for content that carries no proof.
	check func(data []byte) bool
}

// Transcript collects the content a party accepted, so that it can be checked again
// after the run, for instance when the final signature turns out to be invalid.
//
// Proofs are kept in serialized form along with a copy of their public inputs,
// and are decoded again by Audit.
//
// A Transcript is safe for concurrent use, and should only be used for a single run.
type Transcript struct {
	mtx     sync.Mutex
	entries []Entry
}

// record appends the encoding of content. It is a no-op on a nil Transcript.
func (t *Transcript) record(number round.Number, from party.ID, statement Statement, content interface{}, check func([]byte) bool) error {
	if t == nil {
		return nil
	}
	data, err := cbor.Marshal(content)
	if err != nil {
		return fmt.Errorf("sign: recording %s from %s: %w", statement, from, err)
	}
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.entries = append(t.entries, Entry{
		Round:     number,
		From:      from,
		Statement: statement,
		Data:      data,
		check:     check,
	})
	return nil
}

// Entries returns a copy of the recorded entries, in the order they were accepted.
func (t *Transcript) Entries() []Entry {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return append([]Entry(nil), t.entries...)
}

// Audit decodes and verifies every recorded proof again.
// It returns the parties whose proofs no longer verify, along with one error per failed entry.
func (t *Transcript) Audit() (party.IDSlice, error) {
	var (
		result   *multierror.Error
		culprits []party.ID
	)
	for _, e := range t.Entries() {
		if e.check == nil || e.check(e.Data) {
			continue
		}
		result = multierror.Append(result, fmt.Errorf("sign: round %d: %s from %s does not verify", e.Round, e.Statement, e.From))
		culprits = append(culprits, e.From)
	}
	if len(culprits) == 0 {
		return nil, nil
	}
	return party.NewIDSlice(dedup(culprits)), result.ErrorOrNil()
}

func dedup(ids []party.ID) []party.ID {
	seen := make(map[party.ID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// The check functions below only capture the public inputs of a proof and the hash state
// it was verified with, and clone the hash before every verification.

func checkEnc(group curve.Curve, h *hash.Hash, public zkenc.Public) func([]byte) bool {
	return func(data []byte) bool {
		proof := &zkenc.Proof{}
		if err := cbor.Unmarshal(data, proof); err != nil {
			return false
		}
		return proof.Verify(group, h.Clone(), public)
	}
}

func checkLogStar(group curve.Curve, h *hash.Hash, public zklogstar.Public) func([]byte) bool {
	return func(data []byte) bool {
		proof := zklogstar.Empty(group)
		if err := cbor.Unmarshal(data, proof); err != nil {
			return false
		}
		return proof.Verify(h.Clone(), public)
	}
}

func checkMtA(group curve.Curve, h *hash.Hash, Aj curve.Point, Ki *paillier.Ciphertext,
	sender, receiver *paillier.PublicKey, verifier *pedersen.Parameters) func([]byte) bool {
	return func(data []byte) bool {
		m := &mtaMessage{Proof: zkaffg.Empty(group)}
		if err := cbor.Unmarshal(data, m); err != nil {
			return false
		}
		return m.verify(h.Clone(), Aj, Ki, sender, receiver, verifier)
	}
}
