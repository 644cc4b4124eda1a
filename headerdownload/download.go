package headerdownload

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erigontech/erigon-core/core/types"
	"github.com/erigontech/erigon-core/erigon-lib/common"
	"github.com/erigontech/erigon-core/p2p"
	"github.com/erigontech/erigon-core/stagedsync"
)

// outstandingRequests is the concurrent map of not-yet-satisfied chunk
// requests keyed by their start height. The download is finished once it
// is empty: the requester keeps re-dispatching whatever remains in it, and
// the receiver removes an entry the moment a batch fully satisfies it.
// Mirrors the Rust original's DashMap<BlockNumber, HeaderRequest> passed
// between the requester, penalizer and receiver tasks in download_headers.
type outstandingRequests struct {
	mu      sync.Mutex
	byStart map[common.BlockNumber]p2p.HeaderRequest
}

func newOutstandingRequests(reqs []p2p.HeaderRequest) *outstandingRequests {
	o := &outstandingRequests{byStart: make(map[common.BlockNumber]p2p.HeaderRequest, len(reqs))}
	for _, r := range reqs {
		o.byStart[r.Start] = r
	}
	return o
}

func (o *outstandingRequests) snapshot() []p2p.HeaderRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]p2p.HeaderRequest, 0, len(o.byStart))
	for _, r := range o.byStart {
		out = append(out, r)
	}
	return out
}

// removeIfSatisfied removes the request starting at num iff it exists and
// got headers actually match its limit, reporting whether it removed one.
func (o *outstandingRequests) removeIfSatisfied(num common.BlockNumber, got int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	req, ok := o.byStart[num]
	if !ok {
		return false
	}
	if uint64(got) != req.Limit {
		return false
	}
	delete(o.byStart, num)
	return true
}

func (o *outstandingRequests) isEmpty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.byStart) == 0
}

// downloadHeaders runs the requester, penalizer and receiver as a
// cooperative task group over (from, to]: the requester keeps
// re-dispatching the outstanding set until it drains, the receiver
// extends the graph and drains entries out of it, and a misbehaving batch
// is penalized through a bounded channel rather than inline, so a burst of
// bad batches never blocks the receiver on a slow penalizer. The first
// task to fail cancels the other two. Grounded on the Rust original's
// HeaderDownloadStage::download_headers task-group shape.
func (s *stage) downloadHeaders(ctx context.Context, from, to common.BlockNumber) error {
	if to <= from {
		return nil
	}
	reqs := buildRequests(from, to, s.cfg.HeadersUpperBound)
	if len(reqs) == 0 {
		return nil
	}
	outstanding := newOutstandingRequests(reqs)

	done := make(chan struct{})
	var closeOnce sync.Once
	signalDone := func() { closeOnce.Do(func() { close(done) }) }

	// Buffered to 128, matching the original's mpsc::channel(128): a burst
	// of bad batches backpressures the receiver rather than being dropped.
	penalties := make(chan p2p.PeerID, 128)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.requesterLoop(gctx, outstanding, done) })
	g.Go(func() error { return s.penalizerLoop(gctx, penalties, done) })
	g.Go(func() error { return s.receiverLoop(gctx, outstanding, from, to, penalties, signalDone) })

	return g.Wait()
}

func buildRequests(from, to common.BlockNumber, chunk uint64) []p2p.HeaderRequest {
	if chunk == 0 {
		chunk = HeadersUpperBound
	}
	var reqs []p2p.HeaderRequest
	start := from + 1
	for start <= to {
		remaining := uint64(to-start) + 1
		limit := chunk
		if remaining < limit {
			limit = remaining
		}
		reqs = append(reqs, p2p.HeaderRequest{Start: start, Limit: limit})
		start += common.BlockNumber(limit)
	}
	return reqs
}

// requesterLoop re-dispatches every request still outstanding every
// RequestInterval, so a peer that drops a request gets asked again,
// mirroring the original's `loop { send_many_header_requests(...); sleep
// BACK_OFF }` task.
func (s *stage) requesterLoop(ctx context.Context, outstanding *outstandingRequests, done <-chan struct{}) error {
	interval := s.cfg.RequestInterval
	if interval <= 0 {
		interval = RequestInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		reqs := outstanding.snapshot()
		if len(reqs) > 0 {
			if err := s.cfg.Node.SendManyHeaderRequests(ctx, reqs); err != nil {
				return stagedsync.NewStageError(stagedsync.KindPeerMisbehaved, err)
			}
		}
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// penalizerLoop drains the penalty channel and hands each peer to the
// node, decoupling a burst of bad batches from the receiver's hot loop.
func (s *stage) penalizerLoop(ctx context.Context, penalties <-chan p2p.PeerID, done <-chan struct{}) error {
	for {
		select {
		case <-done:
			// The receiver queues every penalty before it signals done, so
			// drain what is left rather than dropping it.
			for {
				select {
				case peer := <-penalties:
					s.cfg.Node.PenalizePeer(peer)
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return nil
		case peer := <-penalties:
			s.cfg.Node.PenalizePeer(peer)
		}
	}
}

// receiverLoop drains the node's header stream. A batch that fails the
// cheap structural check is handed to the penalizer and otherwise
// discarded. A batch that exactly satisfies an outstanding request's limit
// clears that entry from the set and is merged into the graph; a batch
// that doesn't match any outstanding request is still merged
// opportunistically if it's within (from, to] and its tail isn't already
// known, matching the original's unsolicited-but-useful-data path.
// Finishes once the outstanding set is empty.
func (s *stage) receiverLoop(ctx context.Context, outstanding *outstandingRequests, from, to common.BlockNumber, penalties chan<- p2p.PeerID, signalDone func()) error {
	ch, err := s.cfg.Node.StreamHeaders(ctx)
	if err != nil {
		return stagedsync.NewStageError(stagedsync.KindInternal, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if len(msg.Headers) == 0 {
				continue
			}
			if !dummyCheckHeaders(msg.Headers) {
				select {
				case penalties <- msg.Peer:
				case <-ctx.Done():
					return nil
				}
				continue
			}

			num := msg.Headers[0].Number
			lastHash := msg.Headers[len(msg.Headers)-1].Hash()

			if outstanding.removeIfSatisfied(num, len(msg.Headers)) {
				for _, h := range msg.Headers {
					s.graph.Extend(h)
				}
			} else if !s.graph.Contains(lastHash) && num > from && num <= to {
				for _, h := range msg.Headers {
					s.graph.Extend(h)
				}
			}

			if outstanding.isEmpty() {
				signalDone()
				return nil
			}
		}
	}
}

// dummyCheckHeaders is a cheap, non-consensus sanity check over one
// delivered batch: strictly increasing numbers and an unbroken parent-hash
// chain within the batch itself. It catches a garbled or truncated
// response without paying for full seal verification on data that may
// turn out to be junk.
func dummyCheckHeaders(headers []*types.BlockHeader) bool {
	for i := 1; i < len(headers); i++ {
		if headers[i].Number != headers[i-1].Number+1 {
			return false
		}
		if headers[i].ParentHash != headers[i-1].Hash() {
			return false
		}
	}
	return true
}
