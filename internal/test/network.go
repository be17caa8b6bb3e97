package test

import (
	"sort"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// Rule describes a hook that can be applied to a protocol execution.
type Rule interface {
	// ModifyPayload returns the payloads that are actually delivered to `to`,
	// given the ones `from` produced in round `number`.
	ModifyPayload(number round.Number, from, to party.ID, p2p, broadcast string) (string, string)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(number round.Number, from, to party.ID, p2p, broadcast string) (string, string)

func (f RuleFunc) ModifyPayload(number round.Number, from, to party.ID, p2p, broadcast string) (string, string) {
	return f(number, from, to, p2p, broadcast)
}

type batchEntry struct {
	from party.ID
	out  *protocol.Outbound
}

// Run executes a protocol between the given contexts, one per party, delivering every message in order.
//
// Each round is delivered as a batch: first every party's output is collected, then each receiver
// gets its messages on its own goroutine. Run stops when no party produced anything new,
// and returns the first error returned by PushSelf or Push (which are also in the contexts' error logs).
func Run(contexts []*protocol.Context, rule Rule) error {
	var start errgroup.Group
	for _, c := range contexts {
		c := c
		start.Go(c.PushSelf)
	}
	if err := start.Wait(); err != nil {
		return err
	}

	byID := make(map[party.ID]*protocol.Context, len(contexts))
	ids := make([]party.ID, 0, len(contexts))
	for _, c := range contexts {
		byID[c.SelfID()] = c
		ids = append(ids, c.SelfID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// delivered[id] is one more than the last round of id which was delivered
	delivered := make(map[party.ID]int, len(contexts))
	for {
		var batch []batchEntry
		for _, id := range ids {
			c := byID[id]
			if !c.IsCurrentRoundFinished() {
				continue
			}
			out, err := c.Pop()
			if err != nil || out == nil || int(out.Round) < delivered[id] {
				continue
			}
			delivered[id] = int(out.Round) + 1
			if out.Broadcast == "" && len(out.P2P) == 0 {
				continue
			}
			batch = append(batch, batchEntry{from: id, out: out})
		}
		if len(batch) == 0 {
			return nil
		}

		var deliver errgroup.Group
		for _, to := range ids {
			to := to
			receiver := byID[to]
			deliver.Go(func() error {
				var first error
				for _, entry := range batch {
					if entry.from == to {
						continue
					}
					p2p, broadcast := entry.out.PayloadFor(to), entry.out.Broadcast
					if p2p == "" && broadcast == "" {
						continue
					}
					if rule != nil {
						p2p, broadcast = rule.ModifyPayload(entry.out.Round, entry.from, to, p2p, broadcast)
					}
					if err := receiver.Push(p2p, broadcast, entry.from, entry.out.Round); err != nil && first == nil {
						first = err
					}
				}
				return first
			})
		}
		if err := deliver.Wait(); err != nil {
			return err
		}
	}
}

// NewContexts creates one Context per party with the StartFunc returned by start.
func NewContexts(ids []party.ID, sessionID []byte, start func(id party.ID) protocol.StartFunc, opts ...protocol.Option) ([]*protocol.Context, error) {
	contexts := make([]*protocol.Context, 0, len(ids))
	for _, id := range ids {
		c, err := protocol.NewContext(start(id), sessionID, opts...)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}
	return contexts, nil
}
