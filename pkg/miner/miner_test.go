package miner

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/screa/proto-vanity-miner/internal/config"
	"github.com/screa/proto-vanity-miner/internal/crypto"
	"github.com/screa/proto-vanity-miner/internal/logger"
	"github.com/screa/proto-vanity-miner/internal/nonce"
	"github.com/screa/proto-vanity-miner/internal/proto"
	"github.com/screa/proto-vanity-miner/pkg/report"
	"github.com/screa/proto-vanity-miner/pkg/targets"
)

const zeroDigits = "0000000000000000"

func testBlob() []byte {
	b := []byte{0, 0, 0, 0}
	b = append(b, nonce.Render(zeroDigits)...)
	return append(b, "rest"...)
}

// zeroNonceHash is the identifier the search produces for the zero nonce.
func zeroNonceHash(t *testing.T) string {
	t.Helper()
	prefix, err := crypto.NewPrefixDigest(testBlob(), 4)
	if err != nil {
		t.Fatalf("NewPrefixDigest: %v", err)
	}
	return prefix.NewHasher().Identifier(nonce.Render(zeroDigits))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewMiner(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Vanity = "PtAb"
	cfg.IgnoreCase = true
	cfg.Data = testBlob()
	cfg.Workers = 0

	miner, err := NewMiner(cfg, logger.Discard(), report.New(report.NewCSV(&bytes.Buffer{})))
	if err != nil {
		t.Fatalf("NewMiner: %v", err)
	}
	if miner.config != cfg {
		t.Error("Config not set correctly")
	}
	if cfg.Workers < 1 {
		t.Errorf("Workers = %d, want the CPU count", cfg.Workers)
	}
	if miner.Offset() != 4 {
		t.Errorf("Offset() = %d, want 4", miner.Offset())
	}
	if miner.Targets().Len() != 4 {
		t.Errorf("Targets().Len() = %d, want 4", miner.Targets().Len())
	}
}

func TestNewMinerErrors(t *testing.T) {
	tests := []struct {
		name       string
		vanity     string
		ignoreCase bool
		data       []byte
		want       error
	}{
		{
			name:   "marker not found",
			vanity: "Pt",
			data:   []byte("\x00\x00\x00\x00let x = 1\n"),
			want:   proto.ErrMarkerNotFound,
		},
		{
			name:       "vanity too short",
			vanity:     "P",
			ignoreCase: true,
			data:       testBlob(),
			want:       targets.ErrInvalidInput,
		},
		{
			name:   "marker inside header",
			vanity: "Pt",
			data:   []byte("(* Vanity nonce: 0 *)\n"),
			want:   crypto.ErrOffsetOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.Vanity = tt.vanity
			cfg.IgnoreCase = tt.ignoreCase
			cfg.Data = tt.data

			miner, err := NewMiner(cfg, logger.Discard(), report.New(report.NewCSV(&bytes.Buffer{})))
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewMiner() error = %v, want %v", err, tt.want)
			}
			if miner != nil {
				t.Error("NewMiner returned a miner on error")
			}
		})
	}
}

func TestMineReportsForcedNonce(t *testing.T) {
	want := zeroNonceHash(t)

	cfg := config.NewConfig()
	cfg.Vanity = want
	cfg.Data = testBlob()
	cfg.Workers = 2
	cfg.Format = config.FormatCSV

	out := &syncBuffer{}
	miner, err := NewMiner(cfg, logger.Discard(), report.New(report.NewCSV(out)))
	if err != nil {
		t.Fatalf("NewMiner: %v", err)
	}
	// Worker 1 always draws the zero nonce; worker 2 draws random ones.
	miner.newSource = func(id int) nonce.Source {
		if id == 1 {
			return nonce.Fixed(zeroDigits)
		}
		return nonce.NewSeeded(uint64(id), 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- miner.Mine(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for strings.Count(out.String(), "\n") < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out; output so far:\n%s", out.String())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Mine() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Mine did not return after cancel")
	}

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("got %d records, want a header and at least one row", len(records))
	}
	for i, rec := range records[1:] {
		if len(rec) != len(report.Header) {
			t.Fatalf("row %d has %d fields, want %d", i, len(rec), len(report.Header))
		}
		if rec[0] != want || rec[1] != zeroDigits || rec[2] != "1" || rec[3] != "1" {
			t.Errorf("row %d = %q", i, rec)
		}
	}
	if miner.Attempts() == 0 {
		t.Error("Attempts() = 0 after a match")
	}
}

func TestMineVerboseLogsStart(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Vanity = "Pzzzzzzzzzzz"
	cfg.Data = testBlob()
	cfg.Workers = 1
	cfg.LogInterval = 1

	logs := &syncBuffer{}
	log := logger.NewWriter(logs)
	log.SetVerbose(true)

	miner, err := NewMiner(cfg, log, report.New(report.NewCSV(&bytes.Buffer{})))
	if err != nil {
		t.Fatalf("NewMiner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := miner.Mine(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Mine() error = %v, want context.DeadlineExceeded", err)
	}
	if !strings.Contains(logs.String(), "Mining started with 1 workers") {
		t.Errorf("missing start line in logs:\n%s", logs.String())
	}
}
