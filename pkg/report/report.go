// Package report is the single consumer of match events. It keeps the global
// statistics and writes one record per match in human or CSV form.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/screa/proto-vanity-miner/pkg/types"
)

// Header is the CSV header row. Every data row has the same fields in the
// same order.
var Header = []string{
	"hash",
	"nonce",
	"thread",
	"thread_attempts",
	"thread_found_in_sec",
	"thread_rate",
	"thread_rate_unit",
	"found_in_sec",
	"rate",
	"rate_unit",
}

// Sink writes match records.
type Sink interface {
	// Begin is called once before the first event.
	Begin() error
	Write(ev types.MatchEvent, s types.Summary) error
}

// Reporter receives match events and hands them to a Sink with the global
// statistics.
type Reporter struct {
	sink  Sink
	now   func() time.Time
	count uint64
}

// New returns a Reporter writing to sink.
func New(sink Sink) *Reporter {
	return &Reporter{sink: sink, now: time.Now}
}

// Run writes records until ctx is done or a write fails. It never returns
// nil: the result is either a write error or the context's error.
func (r *Reporter) Run(ctx context.Context, results <-chan types.MatchEvent) error {
	if err := r.sink.Begin(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	started := r.now()
	for {
		waiting := r.now()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-results:
			if err := r.sink.Write(ev, r.summarize(started, waiting)); err != nil {
				return fmt.Errorf("write match: %w", err)
			}
		}
	}
}

func (r *Reporter) summarize(started, waiting time.Time) types.Summary {
	r.count++
	now := r.now()
	total := wholeSeconds(now.Sub(started))
	return types.Summary{
		Count:        r.count,
		Seconds:      wholeSeconds(now.Sub(waiting)),
		TotalSeconds: total,
		Rate:         types.CalcRate(r.count, total),
	}
}

func wholeSeconds(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d / time.Second)
}

// CSV writes one flushed row per match.
type CSV struct {
	w *csv.Writer
}

// NewCSV returns a CSV sink.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// Begin writes the header row.
func (c *CSV) Begin() error {
	return c.writeRow(Header)
}

// Write implements Sink.
func (c *CSV) Write(ev types.MatchEvent, s types.Summary) error {
	return c.writeRow(Row(ev, s))
}

func (c *CSV) writeRow(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Row returns the CSV fields for one match, in Header order.
func Row(ev types.MatchEvent, s types.Summary) []string {
	return []string{
		ev.Hash,
		ev.NonceDigits,
		strconv.Itoa(ev.WorkerID),
		strconv.FormatUint(ev.Attempts, 10),
		strconv.FormatUint(ev.Seconds, 10),
		formatRate(ev.Rate.Value),
		ev.Rate.Unit,
		strconv.FormatUint(s.Seconds, 10),
		formatRate(s.Rate.Value),
		s.Rate.Unit,
	}
}

// formatRate prints the shortest decimal that round-trips, never in
// exponent form.
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const rule = "────────────────────────────────────────────"

// Human writes a box-drawn block per match with attempt counts grouped
// according to the locale.
type Human struct {
	w io.Writer
	p *message.Printer
}

// NewHuman returns a Human sink for the given locale.
func NewHuman(w io.Writer, tag language.Tag) *Human {
	return &Human{w: w, p: message.NewPrinter(tag)}
}

// Begin implements Sink. Human output has no header.
func (h *Human) Begin() error {
	return nil
}

// Write implements Sink.
func (h *Human) Write(ev types.MatchEvent, s types.Summary) error {
	// ev.Nonce ends with its own newline
	_, err := fmt.Fprintf(h.w,
		"  ┌%s\n"+
			"%2d│ %s"+
			"  │ └> %s\n"+
			"  │     found in: %ds (%s attempts)\n"+
			"  │ found so far: %d (%.2f/%s)\n"+
			"  │      elapsed: %ds/%ds\n"+
			"  │  total found: %d (%.2f/%s)\n"+
			"  └%s\n",
		rule,
		ev.WorkerID, ev.Nonce,
		ev.Hash,
		ev.Seconds, h.p.Sprintf("%d", ev.Attempts),
		ev.Count, ev.Rate.Value, ev.Rate.Unit,
		s.Seconds, s.TotalSeconds,
		s.Count, s.Rate.Value, s.Rate.Unit,
		rule,
	)
	return err
}
