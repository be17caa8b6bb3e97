package main

import (
	"context"

	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// network delivers messages between the Contexts of the simulated parties.
type network struct {
	ids      party.IDSlice
	contexts map[party.ID]*protocol.Context
	// delivered[id] is one more than the last round of id which was delivered
	delivered map[party.ID]int
}

func newNetwork(contexts []*protocol.Context) *network {
	n := &network{
		contexts:  make(map[party.ID]*protocol.Context, len(contexts)),
		delivered: make(map[party.ID]int, len(contexts)),
	}
	ids := make([]party.ID, 0, len(contexts))
	for _, c := range contexts {
		n.contexts[c.SelfID()] = c
		ids = append(ids, c.SelfID())
	}
	n.ids = party.NewIDSlice(ids)
	return n
}

type outgoing struct {
	from party.ID
	out  *protocol.Outbound
}

// run starts every Context, and delivers each completed round to its destinations
// until no party produces anything new.
// The first failing party cancels the deliveries still in flight.
func (n *network) run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start, startCtx := errgroup.WithContext(ctx)
	for _, id := range n.ids {
		c := n.contexts[id]
		start.Go(func() error {
			if err := startCtx.Err(); err != nil {
				return err
			}
			return c.PushSelf()
		})
	}
	if err := start.Wait(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := n.collect()
		if len(batch) == 0 {
			return nil
		}

		deliver, deliverCtx := errgroup.WithContext(ctx)
		for _, to := range n.ids {
			to := to
			receiver := n.contexts[to]
			deliver.Go(func() error {
				for _, msg := range batch {
					if err := deliverCtx.Err(); err != nil {
						return err
					}
					if msg.from == to {
						continue
					}
					p2p, broadcast := msg.out.PayloadFor(to), msg.out.Broadcast
					if p2p == "" && broadcast == "" {
						continue
					}
					if err := receiver.Push(p2p, broadcast, msg.from, msg.out.Round); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := deliver.Wait(); err != nil {
			return err
		}
	}
}

// collect pops the rounds which completed since the last call.
func (n *network) collect() []outgoing {
	var batch []outgoing
	for _, id := range n.ids {
		c := n.contexts[id]
		if !c.IsCurrentRoundFinished() {
			continue
		}
		out, err := c.Pop()
		if err != nil || out == nil || int(out.Round) < n.delivered[id] {
			continue
		}
		n.delivered[id] = int(out.Round) + 1
		if out.Broadcast == "" && len(out.P2P) == 0 {
			continue
		}
		batch = append(batch, outgoing{from: id, out: out})
	}
	return batch
}
