package miner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/screa/proto-vanity-miner/internal/config"
	"github.com/screa/proto-vanity-miner/internal/crypto"
	"github.com/screa/proto-vanity-miner/internal/logger"
	"github.com/screa/proto-vanity-miner/internal/nonce"
	"github.com/screa/proto-vanity-miner/internal/proto"
	"github.com/screa/proto-vanity-miner/pkg/report"
	"github.com/screa/proto-vanity-miner/pkg/targets"
	"github.com/screa/proto-vanity-miner/pkg/types"
	"github.com/screa/proto-vanity-miner/pkg/worker"
)

// resultsPerWorker sizes the results buffer. Matches are rare compared to
// attempts, so the buffer only has to absorb bursts.
const resultsPerWorker = 64

// Miner coordinates the search: it owns the shared, read-only target set and
// prefix digest, fans out the workers, and runs the reporter.
type Miner struct {
	config       *config.Config
	logger       *logger.Logger
	reporter     *report.Reporter
	attempts     atomic.Uint64
	offset       int
	workerConfig *types.WorkerConfig

	// newSource returns the nonce source for a worker. Tests replace it.
	newSource func(workerID int) nonce.Source
}

// NewMiner builds the target set and prefix digest from cfg. It returns
// proto.ErrMarkerNotFound when the blob has no nonce line, before any worker
// exists.
func NewMiner(cfg *config.Config, log *logger.Logger, reporter *report.Reporter) (*Miner, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	set, err := targets.Build(cfg.Vanity, cfg.IgnoreCase)
	if err != nil {
		return nil, err
	}

	offset, err := proto.FindNonceOffset(cfg.Data)
	if err != nil {
		return nil, err
	}

	prefix, err := crypto.NewPrefixDigest(cfg.Data, offset)
	if err != nil {
		return nil, fmt.Errorf("prefix digest: %w", err)
	}

	return &Miner{
		config:   cfg,
		logger:   log,
		reporter: reporter,
		offset:   offset,
		workerConfig: &types.WorkerConfig{
			Targets: set,
			Prefix:  prefix,
		},
		newSource: func(int) nonce.Source { return nonce.NewRandom() },
	}, nil
}

// Targets returns the expanded target set.
func (m *Miner) Targets() *targets.Set {
	return m.workerConfig.Targets
}

// Offset returns the nonce insertion offset in the blob.
func (m *Miner) Offset() int {
	return m.offset
}

// Attempts returns the number of attempts flushed by all workers so far.
func (m *Miner) Attempts() uint64 {
	return m.attempts.Load()
}

// Mine starts the workers and blocks in the reporter. Without cancellation
// it only returns on a write or worker failure. When ctx ends it returns
// ctx.Err().
func (m *Miner) Mine(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	results := make(chan types.MatchEvent, resultsPerWorker*m.config.Workers)

	// Workers are numbered from 1
	for i := 1; i <= m.config.Workers; i++ {
		w := worker.NewWorker(i, m.workerConfig, m.newSource(i), &m.attempts)
		g.Go(func() error {
			return w.Run(gctx, results)
		})
	}

	if m.logger.Verbose() {
		interval := time.Duration(m.config.LogInterval) * time.Second
		if interval <= 0 {
			interval = config.DefaultLogInterval * time.Second
		}
		m.logger.Printf("Mining started with %d workers, logging every %d seconds...",
			m.config.Workers, m.config.LogInterval)
		g.Go(func() error {
			m.periodicLogger(gctx, interval, time.Now())
			return nil
		})
	}

	repErr := m.reporter.Run(gctx, results)
	cancel()
	workerErr := g.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if repErr != nil && !errors.Is(repErr, context.Canceled) {
		return repErr
	}
	return workerErr
}

// periodicLogger logs mining progress at regular intervals
func (m *Miner) periodicLogger(ctx context.Context, interval time.Duration, start time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			attempts := m.attempts.Load()
			elapsed := time.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(attempts) / elapsed.Seconds()
			}
			m.logger.Printf("Progress: %d attempts, %.2f hashes/sec", attempts, rate)
		case <-ctx.Done():
			return
		}
	}
}
