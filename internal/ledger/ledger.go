package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/bundlekeys/internal/model"
)

// Ledger is an open outcome ledger. It is confined to one goroutine.
type Ledger struct {
	dir     string
	files   map[model.OutcomeClass]*os.File
	known   map[string]model.OutcomeClass
	records []model.LedgerRecord
	closed  bool
}

// Open loads every ledger file in dir and prepares it for appends.
// The directory is created if needed; files are created lazily on first append.
func Open(dir string) (*Ledger, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	l := &Ledger{
		dir:   dir,
		files: make(map[model.OutcomeClass]*os.File, len(model.AllOutcomeClasses)),
		known: make(map[string]model.OutcomeClass),
	}
	for _, class := range model.AllOutcomeClasses {
		recs, err := readFile(l.Path(class), class)
		if err != nil {
			slog.Warn("ledger file unreadable, treating as empty", "path", l.Path(class), "error", err)
			continue
		}
		for _, r := range recs {
			l.remember(r)
		}
	}
	return l, nil
}

// Dir returns the ledger directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// Path returns the file backing class.
func (l *Ledger) Path(class model.OutcomeClass) string {
	return filepath.Join(l.dir, class.FileName())
}

// Contains reports whether batchID already has a terminal record.
func (l *Ledger) Contains(batchID string) bool {
	_, ok := l.known[batchID]
	return ok
}

// ClassOf returns the class of the first record seen for batchID.
func (l *Ledger) ClassOf(batchID string) (model.OutcomeClass, bool) {
	c, ok := l.known[batchID]
	return c, ok
}

// Records returns loaded and appended records in file order, then append order.
func (l *Ledger) Records() []model.LedgerRecord {
	out := make([]model.LedgerRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Filter drops keys whose batch already has a record. Order is preserved.
func (l *Ledger) Filter(keys []model.CandidateKey) (kept []model.CandidateKey, excluded int) {
	kept = make([]model.CandidateKey, 0, len(keys))
	for _, k := range keys {
		if l.Contains(k.BatchID) {
			excluded++
			continue
		}
		kept = append(kept, k)
	}
	return kept, excluded
}

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("ledger closed")

// Append writes rec to its class file and syncs it to disk.
func (l *Ledger) Append(rec model.LedgerRecord) error {
	if l.closed {
		return ErrClosed
	}
	if rec.BatchID == "" {
		return fmt.Errorf("append ledger record: empty batch id")
	}

	f, err := l.file(rec.Class)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(formatLine(rec)); err != nil {
		return fmt.Errorf("append ledger record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}

	l.remember(rec)
	return nil
}

// Close releases every open file. It is safe to call more than once.
func (l *Ledger) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for class, f := range l.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", class.FileName(), err))
		}
	}
	l.files = nil
	return errors.Join(errs...)
}

func (l *Ledger) file(class model.OutcomeClass) (*os.File, error) {
	if f, ok := l.files[class]; ok {
		return f, nil
	}
	f, err := os.OpenFile(l.Path(class), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", class.FileName(), err)
	}
	l.files[class] = f
	return f, nil
}

func (l *Ledger) remember(rec model.LedgerRecord) {
	if _, ok := l.known[rec.BatchID]; !ok {
		l.known[rec.BatchID] = rec.Class
	}
	l.records = append(l.records, rec)
}

func formatLine(rec model.LedgerRecord) string {
	return rec.BatchID + "," + model.LedgerName(rec.DisplayName) + "," + rec.RevealedCode + "\n"
}

// readFile parses one ledger file. Lines without a batch id are skipped.
func readFile(path string, class model.OutcomeClass) ([]model.LedgerRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var recs []model.LedgerRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		rec, ok := parseLine(sc.Text(), class)
		if ok {
			recs = append(recs, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func parseLine(line string, class model.OutcomeClass) (model.LedgerRecord, bool) {
	line = strings.TrimRight(line, "\r")
	cols := strings.SplitN(line, ",", 3)
	batch := strings.TrimSpace(cols[0])
	if batch == "" {
		return model.LedgerRecord{}, false
	}
	rec := model.LedgerRecord{BatchID: batch, Class: class}
	if len(cols) > 1 {
		rec.DisplayName = cols[1]
	}
	if len(cols) > 2 {
		rec.RevealedCode = cols[2]
	}
	return rec, true
}
