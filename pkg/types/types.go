package types

import (
	"github.com/screa/proto-vanity-miner/internal/crypto"
	"github.com/screa/proto-vanity-miner/pkg/targets"
)

// Rate units
const (
	PerMinute = "minute"
	PerHour   = "hour"
)

// Rate is a match frequency expressed per minute, or per hour when fewer
// than one match per minute is found.
type Rate struct {
	Value float64
	Unit  string
}

// CalcRate returns the rate of count matches over seconds. A zero duration
// yields a zero rate.
func CalcRate(count, seconds uint64) Rate {
	var perMinute float64
	if seconds > 0 {
		perMinute = 60 * float64(count) / float64(seconds)
	}
	if perMinute >= 1 {
		return Rate{Value: perMinute, Unit: PerMinute}
	}
	return Rate{Value: 60 * perMinute, Unit: PerHour}
}

// MatchEvent is sent by a worker for every identifier that hits the target
// set. It is an immutable snapshot; workers never share it after sending.
type MatchEvent struct {
	Hash        string // encoded protocol hash
	Nonce       string // full nonce comment line, newline included
	NonceDigits string
	Attempts    uint64 // attempts since this worker's previous match
	Seconds     uint64 // whole seconds since this worker's previous match
	Rate        Rate   // worker rate since the worker started
	Count       uint64 // matches found so far by this worker
	WorkerID    int
}

// Summary is the reporter's view after handling one event.
type Summary struct {
	Count        uint64 // matches reported so far across all workers
	Seconds      uint64 // whole seconds waited for this event
	TotalSeconds uint64 // whole seconds since the reporter started
	Rate         Rate
}

// WorkerConfig is shared read-only by every worker.
type WorkerConfig struct {
	Targets *targets.Set
	Prefix  *crypto.PrefixDigest
}
