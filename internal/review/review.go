// Package review lets the operator overrule the ownership matcher.
//
// Entries the matcher believes are owned are written, one display name per
// line, to a review file. The operator deletes the lines of games they want
// attempted anyway and confirms; every entry whose name is gone from the
// file is forced back into the submission list.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/bundlekeys/internal/matcher"
	"github.com/roach88/bundlekeys/internal/model"
)

// DefaultPath is the review file name used when none is configured.
const DefaultPath = "skipped.txt"

// FileReviewer adjudicates the skip set through an editable text file.
type FileReviewer struct {
	path string
	in   io.Reader
	out  io.Writer
}

// NewFileReviewer creates a reviewer writing to path, prompting on out and
// waiting for a line on in.
func NewFileReviewer(path string, in io.Reader, out io.Writer) *FileReviewer {
	if path == "" {
		path = DefaultPath
	}
	return &FileReviewer{path: path, in: in, out: out}
}

// Path returns the review file location.
func (r *FileReviewer) Path() string {
	return r.path
}

// Review writes the skip list, waits for confirmation, and returns the
// entries whose names the operator removed.
func (r *FileReviewer) Review(ctx context.Context, skip []matcher.Matched) ([]model.CandidateKey, error) {
	if len(skip) == 0 {
		return nil, nil
	}

	names := listNames(skip)
	if err := writeList(r.path, names); err != nil {
		return nil, err
	}

	fmt.Fprintf(r.out, "Inside %s is a list of %d games that we think you already own, but aren't completely sure.\n",
		r.path, len(names))
	fmt.Fprint(r.out, "Feel free to REMOVE from that list any games that you would like to try anyways, and when done press Enter to confirm. ")

	if err := waitForLine(ctx, r.in); err != nil {
		return nil, err
	}

	kept, err := readList(r.path)
	if err != nil {
		return nil, err
	}

	var forced []model.CandidateKey
	for _, m := range skip {
		if !kept[strings.TrimSpace(m.Key.DisplayName)] {
			forced = append(forced, m.Key)
		}
	}
	slog.Info("skip list reviewed", "listed", len(names), "forced", len(forced))
	return forced, nil
}

// listNames returns distinct trimmed display names in skip order.
func listNames(skip []matcher.Matched) []string {
	seen := make(map[string]bool, len(skip))
	names := make([]string, 0, len(skip))
	for _, m := range skip {
		name := strings.TrimSpace(m.Key.DisplayName)
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func writeList(path string, names []string) error {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write review list: %w", err)
	}
	return nil
}

func readList(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read review list: %w", err)
	}
	defer f.Close()

	kept := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		kept[strings.TrimSpace(sc.Text())] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read review list: %w", err)
	}
	return kept, nil
}

// waitForLine blocks until a line (or EOF) arrives on in, or ctx ends.
func waitForLine(ctx context.Context, in io.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(in).ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("wait for confirmation: %w", err)
		}
		return nil
	}
}

// AcceptAll keeps every matched entry skipped without asking. It backs
// non-interactive runs.
type AcceptAll struct{}

// Review logs the skip set and forces nothing.
func (AcceptAll) Review(_ context.Context, skip []matcher.Matched) ([]model.CandidateKey, error) {
	for _, m := range skip {
		slog.Debug("skipping owned entry", "batch", m.Key.BatchID, "name", m.Key.DisplayName,
			"matched", m.Result.MatchedName, "confidence", m.Result.Confidence, "exact", m.Result.Exact)
	}
	return nil, nil
}
