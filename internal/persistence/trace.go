package persistence

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/homestead/internal/engine"
	"github.com/talgya/homestead/internal/world"
)

// TraceEntry is one line of the tick trace.
type TraceEntry struct {
	Tick    uint64       `json:"tick"`
	Date    string       `json:"date"`
	Sun     uint32       `json:"sun"`
	Rain    uint32       `json:"rain"`
	Humans  []TraceHuman `json:"humans"`
	Food    uint64       `json:"food"`
	Water   uint64       `json:"water"`
	Dropped int          `json:"dropped"`
	Digest  string       `json:"digest"`
}

// TraceHuman is the per-human part of a trace line.
type TraceHuman struct {
	Tile     world.TilePoint `json:"tile"`
	Activity string          `json:"activity"`
	Hunger   float64         `json:"hunger"`
	Fatigue  float64         `json:"fatigue"`
}

// NewTraceEntry condenses a snapshot into a trace line. The digest covers
// every human and store, so two runs agree on it exactly when their states
// match.
func NewTraceEntry(snap *engine.Snapshot) TraceEntry {
	e := TraceEntry{
		Tick:    snap.Tick,
		Date:    snap.Date,
		Sun:     snap.Weather.Sun,
		Rain:    snap.Weather.Rain,
		Humans:  make([]TraceHuman, len(snap.Humans)),
		Food:    snap.Stats.Food,
		Water:   snap.Stats.Water,
		Dropped: snap.Stats.Dropped,
		Digest:  Digest(snap),
	}
	for i, h := range snap.Humans {
		e.Humans[i] = TraceHuman{
			Tile:     h.Tile,
			Activity: h.Activity,
			Hunger:   h.Hunger,
			Fatigue:  h.Fatigue,
		}
	}
	return e
}

// Digest returns a hex SHA-256 over the snapshot's humans and stores.
func Digest(snap *engine.Snapshot) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	// Errors are impossible: every field is plain data.
	_ = enc.Encode(snap.Humans)
	for _, st := range snap.Stores {
		keys := make([]string, 0, len(st.Items))
		for k := range st.Items {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(h, "%d", st.ID)
		for _, k := range keys {
			fmt.Fprintf(h, " %s=%d", k, st.Items[k])
		}
		fmt.Fprintf(h, " p=%d\n", st.Pending)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TraceWriter writes zstd-compressed JSONL trace files, one file per
// simulated day.
type TraceWriter struct {
	baseDir string
	prefix  string
	every   uint64

	mu     sync.Mutex
	curDay int
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

// NewTraceWriter writes every nth tick under baseDir. n < 1 traces every tick.
func NewTraceWriter(baseDir, prefix string, every int) *TraceWriter {
	if every < 1 {
		every = 1
	}
	return &TraceWriter{
		baseDir: baseDir,
		prefix:  prefix,
		every:   uint64(every),
		curDay:  -1,
	}
}

// Close flushes and closes the current file.
func (w *TraceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// WriteSnapshot appends snap's trace line if its tick is due.
func (w *TraceWriter) WriteSnapshot(snap *engine.Snapshot) error {
	if snap.Tick%w.every != 0 {
		return nil
	}
	return w.Write(snap.Time.DayNumber(), NewTraceEntry(snap))
}

// Write appends v as one JSON line to the file for day.
func (w *TraceWriter) Write(day int, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush pushes buffered lines through the compressor.
func (w *TraceWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *TraceWriter) rotateLocked(day int) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForDay(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curDay = day
	return nil
}

func (w *TraceWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curDay = -1
	return err1
}

// PathForDay returns the trace file for a simulated day.
func (w *TraceWriter) PathForDay(day int) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-day%05d.jsonl.zst", w.prefix, day))
}

// ReadTrace decodes every entry in a trace file.
func ReadTrace(path string) ([]TraceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []TraceEntry
	for sc.Scan() {
		var e TraceEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
