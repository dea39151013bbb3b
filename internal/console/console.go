package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"github.com/scrm/trolley/internal/presentation/tui"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/input"
	"golang.org/x/term"
)

// Console reads single key presses and writes the status display.
type Console struct {
	in      io.Reader
	out     io.Writer
	panel   *input.Panel
	profile termenv.Profile

	mu sync.Mutex // Serializes writes to out
}

// New creates a console over in and out.
func New(in io.Reader, out io.Writer, panel *input.Panel) *Console {
	return &Console{in: in, out: out, panel: panel, profile: termenv.Ascii}
}

// WithProfile sets the color profile of the display.
func (c *Console) WithProfile(p termenv.Profile) *Console {
	c.profile = p
	return c
}

// MakeRaw puts the terminal behind f into raw mode when it is one. The
// returned func restores it.
func MakeRaw(f *os.File) (restore func(), err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	return func() { _ = term.Restore(fd, old) }, nil
}

// Run dispatches key presses until ctx is done, input ends or the quit key
// is pressed. Ctrl-C in raw mode arrives as a byte and also quits.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan byte)
	errCh := make(chan error, 1)
	go func() {
		r := bufio.NewReader(c.in)
		for {
			b, err := r.ReadByte()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case k := <-keys:
			if k == quitKey || k == 'Q' || k == 0x03 {
				return ErrQuit
			}
			if a, ok := Lookup(k); ok {
				a.Do(c.panel)
			}
		}
	}
}

// Show redraws the status line in place.
func (c *Console) Show(st domain.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r\x1b[2K%s", tui.StatusLine(c.profile, st))
}

// Print writes an event above the status line.
func (c *Console) Print(e domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r\x1b[2K%s\r\n", tui.EventLine(c.profile, e))
}

// Record implements ports.EventSink so the console can be teed with the log.
func (c *Console) Record(_ context.Context, e domain.Event) error {
	c.Print(e)
	return nil
}
