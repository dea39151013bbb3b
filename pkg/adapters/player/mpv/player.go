// Package mpv drives an mpv media player over its JSON IPC socket.
//
// Start mpv with --input-ipc-server=<socket> (Launch does this) and point
// Dial at the same path.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"sync"
	"time"
)

// ErrClosed is returned once the connection is gone.
var ErrClosed = errors.New("mpv: connection closed")

// Player implements ports.Player against a running mpv instance.
type Player struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID int64
	closed bool
	cmd    *exec.Cmd
}

// Dial connects to the IPC socket at path.
func Dial(ctx context.Context, path string) (*Player, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("mpv: dial %s: %w", path, err)
	}
	return NewFromConn(conn), nil
}

// NewFromConn wraps an established IPC connection.
func NewFromConn(conn net.Conn) *Player {
	return &Player{conn: conn, reader: bufio.NewReader(conn)}
}

// Launch starts mpv listening on socket and connects to it. The process is
// stopped by Close or when ctx is cancelled.
func Launch(ctx context.Context, binary, socket string, args ...string) (*Player, error) {
	if binary == "" {
		binary = "mpv"
	}
	argv := append([]string{
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
		"--input-ipc-server=" + socket,
	}, args...)

	cmd := exec.CommandContext(ctx, binary, argv...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mpv: start %s: %w", binary, err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		p, err := Dial(ctx, socket)
		if err == nil {
			p.cmd = cmd
			return p, nil
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID *int64          `json:"request_id"`
	Event     string          `json:"event"`
}

// call sends one command and waits for its reply, skipping async events.
func (p *Player) call(ctx context.Context, args ...any) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	deadline, _ := ctx.Deadline()
	if err := p.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("mpv: set deadline: %w", err)
	}

	p.nextID++
	id := p.nextID
	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, err
	}
	if _, err := p.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("mpv: write %v: %w", args[0], err)
	}

	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("mpv: read reply to %v: %w", args[0], err)
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("mpv: decode reply: %w", err)
		}
		if resp.Event != "" || resp.RequestID == nil || *resp.RequestID != id {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %v: %s", args[0], resp.Error)
		}
		return resp.Data, nil
	}
}

// Load replaces the playlist with clip and leaves it paused.
func (p *Player) Load(ctx context.Context, clip string) error {
	if _, err := p.call(ctx, "loadfile", clip, "replace"); err != nil {
		return err
	}
	return p.Pause(ctx)
}

// SetRate sets mpv's speed property. mpv rejects 0; pause instead.
func (p *Player) SetRate(ctx context.Context, rate float64) error {
	_, err := p.call(ctx, "set_property", "speed", rate)
	return err
}

// SeekTo jumps to a normalized position.
func (p *Player) SeekTo(ctx context.Context, position float64) error {
	_, err := p.call(ctx, "seek", position*100, "absolute-percent", "exact")
	return err
}

// Pause freezes playback on the current frame.
func (p *Player) Pause(ctx context.Context) error {
	_, err := p.call(ctx, "set_property", "pause", true)
	return err
}

// Play resumes playback at the current speed.
func (p *Player) Play(ctx context.Context) error {
	_, err := p.call(ctx, "set_property", "pause", false)
	return err
}

// Position reads percent-pos and normalizes it.
func (p *Player) Position(ctx context.Context) (float64, error) {
	data, err := p.call(ctx, "get_property", "percent-pos")
	if err != nil {
		return 0, err
	}
	var pct float64
	if err := json.Unmarshal(data, &pct); err != nil {
		return 0, fmt.Errorf("mpv: percent-pos: %w", err)
	}
	return pct / 100, nil
}

// Close drops the connection and stops a launched mpv.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.conn.Close()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	}
	return err
}
