package domain

import (
	"fmt"
	"time"
)

// CommandKind identifies a discrete operator action.
type CommandKind string

const (
	CommandRun      CommandKind = "run"
	CommandDeadman  CommandKind = "deadman"
	CommandReverser CommandKind = "reverser"
	CommandBrake    CommandKind = "brake"
	CommandReset    CommandKind = "reset"
	CommandMark     CommandKind = "mark"
	CommandBell     CommandKind = "bell"
)

// Command is an operator action captured as data.
// Seq is assigned by the input surface and is strictly increasing.
type Command struct {
	Seq      uint64      `json:"seq"`
	At       time.Time   `json:"at"`
	Kind     CommandKind `json:"kind"`
	RunLevel RunLevel    `json:"run_level,omitempty"`
	Reverser Reverser    `json:"reverser,omitempty"`
	Brake    Brake       `json:"brake,omitempty"`
	Deadman  Deadman     `json:"deadman,omitempty"`
	Note     string      `json:"note,omitempty"`
}

func (c Command) String() string {
	switch c.Kind {
	case CommandRun:
		return fmt.Sprintf("#%d %s", c.Seq, c.RunLevel)
	case CommandDeadman:
		return fmt.Sprintf("#%d deadman %s", c.Seq, c.Deadman)
	case CommandReverser:
		return fmt.Sprintf("#%d reverser %s", c.Seq, c.Reverser)
	case CommandBrake:
		return fmt.Sprintf("#%d brake %s", c.Seq, c.Brake)
	case CommandMark:
		return fmt.Sprintf("#%d mark %q", c.Seq, c.Note)
	}
	return fmt.Sprintf("#%d %s", c.Seq, c.Kind)
}
