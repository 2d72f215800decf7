package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/screa/proto-vanity-miner/internal/crypto"
	"github.com/screa/proto-vanity-miner/internal/nonce"
	"github.com/screa/proto-vanity-miner/pkg/types"
)

// FlushEvery is how many attempts a worker counts locally before adding
// them to the shared progress counter and checking for cancellation.
const FlushEvery = 4096

// ErrResultsClosed is returned when a match could not be delivered because
// the consumer is gone.
var ErrResultsClosed = errors.New("result consumer gone")

// Worker runs the search loop for one goroutine. All of its counters are
// private; only MatchEvent values leave it.
type Worker struct {
	id     int
	config *types.WorkerConfig
	hasher *crypto.Hasher
	nonces nonce.Source
	total  *atomic.Uint64 // shared progress counter, may be nil
	now    func() time.Time

	attempts  uint64 // since the previous match
	unflushed uint64
	count     uint64
	started   time.Time
	lastMatch time.Time
}

// NewWorker creates a new worker instance. total may be nil when no progress
// reporting is wanted.
func NewWorker(id int, config *types.WorkerConfig, nonces nonce.Source, total *atomic.Uint64) *Worker {
	w := &Worker{
		id:     id,
		config: config,
		hasher: config.Prefix.NewHasher(),
		nonces: nonces,
		total:  total,
		now:    time.Now,
	}
	w.reset()
	return w
}

// ID returns the 1-based worker number.
func (w *Worker) ID() int {
	return w.id
}

func (w *Worker) reset() {
	w.started = w.now()
	w.lastMatch = w.started
	w.attempts = 0
	w.count = 0
}

// Attempt hashes one nonce and returns a match event, or nil on a miss.
func (w *Worker) Attempt() *types.MatchEvent {
	digits := w.nonces.Digits()
	text := nonce.Render(digits)
	id := w.hasher.Identifier(text)

	w.attempts++
	w.unflushed++

	if !w.config.Targets.Matches(id) {
		return nil
	}

	now := w.now()
	w.count++
	ev := &types.MatchEvent{
		Hash:        id,
		Nonce:       text,
		NonceDigits: digits,
		Attempts:    w.attempts,
		Seconds:     wholeSeconds(now.Sub(w.lastMatch)),
		Rate:        types.CalcRate(w.count, wholeSeconds(now.Sub(w.started))),
		Count:       w.count,
		WorkerID:    w.id,
	}

	w.flush()
	w.lastMatch = now
	w.attempts = 0
	return ev
}

// Run searches until ctx is done. A miss never blocks; a match blocks until
// the consumer takes it.
func (w *Worker) Run(ctx context.Context, results chan<- types.MatchEvent) error {
	w.reset()
	for {
		ev := w.Attempt()
		if ev == nil {
			if w.unflushed >= FlushEvery {
				w.flush()
				if ctx.Err() != nil {
					return nil
				}
			}
			continue
		}

		select {
		case results <- *ev:
		case <-ctx.Done():
			return fmt.Errorf("worker %d: %w: %w", w.id, ErrResultsClosed, context.Cause(ctx))
		}
	}
}

func (w *Worker) flush() {
	if w.total != nil && w.unflushed > 0 {
		w.total.Add(w.unflushed)
	}
	w.unflushed = 0
}

func wholeSeconds(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d / time.Second)
}
