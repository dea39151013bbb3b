// Package file implements the session log: one event per line, appended to
// a local file.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/scrm/trolley/pkg/domain"
)

// DefaultName is the log file name placed in the temp directory.
const DefaultName = "trolley.log"

// DefaultPath returns the log location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DefaultName)
}

// Format selects the line encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Sink appends events to a file. Safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	path   string
	format Format
	f      *os.File
}

// Option configures a Sink.
type Option func(*Sink)

// WithFormat selects JSON lines (default) or human-readable text lines.
func WithFormat(f Format) Option {
	return func(s *Sink) {
		if f != "" {
			s.format = f
		}
	}
}

// Open creates the file if needed and positions at its end.
func Open(path string, opts ...Option) (*Sink, error) {
	if path == "" {
		path = DefaultPath()
	}
	s := &Sink{path: path, format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	if s.format != FormatJSON && s.format != FormatText {
		return nil, fmt.Errorf("unknown log format %q", s.format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	s.f = f
	return s, nil
}

// Path returns the file being written.
func (s *Sink) Path() string { return s.path }

// Record appends one line.
func (s *Sink) Record(_ context.Context, event domain.Event) error {
	line, err := s.encode(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("failed to append to log: %w", err)
	}
	return nil
}

func (s *Sink) encode(e domain.Event) ([]byte, error) {
	if s.format == FormatText {
		return []byte(FormatLine(e) + "\n"), nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return append(data, '\n'), nil
}

// Close flushes and closes the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := errors.Join(s.f.Sync(), s.f.Close())
	s.f = nil
	return err
}

// FormatLine renders an event the way the text format writes it.
func FormatLine(e domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-10s %-8s %s speed=%.3f pos=%.4f",
		e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), e.Kind, e.State, e.RunLevel, e.Speed, e.Position)
	if e.Fault != "" {
		fmt.Fprintf(&b, " fault=%s", e.Fault)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " reason=%q", e.Reason)
	}
	if e.Note != "" {
		fmt.Fprintf(&b, " note=%q", e.Note)
	}
	return b.String()
}

// ReadAll decodes a JSON-lines log. Blank lines are skipped.
func ReadAll(r io.Reader) ([]domain.Event, error) {
	var out []domain.Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var e domain.Event
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return out, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// ReadFile decodes the JSON-lines log at path.
func ReadFile(path string) ([]domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f)
}
