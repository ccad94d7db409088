// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeOutput uint32 = iota + 1
	TypeProgress
	TypeExit

	typeAll uint32 = 0xFFFF
)

// Event is a notification about a managed process.
type Event interface {
	// Type is the kelindar/event type identifier.
	Type() uint32
	// Name is the event name used on the wire (SSE event field).
	Name() string
	// Process returns the handle of the process the event belongs to.
	Process() int64
}

// Stream names one of the two output pipes of a child process.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// OutputEvent carries one line read from stdout or stderr.
type OutputEvent struct {
	ProcessID int64     `json:"process_id"`
	Reference string    `json:"reference,omitempty"`
	Stream    Stream    `json:"stream"`
	Line      string    `json:"line"`
	Timestamp time.Time `json:"timestamp"`
}

func (e OutputEvent) Type() uint32   { return TypeOutput }
func (e OutputEvent) Name() string   { return "output" }
func (e OutputEvent) Process() int64 { return e.ProcessID }

// ProgressEvent is emitted next to an OutputEvent when the line looks like
// an FFmpeg progress report.
type ProgressEvent struct {
	ProcessID int64     `json:"process_id"`
	Reference string    `json:"reference,omitempty"`
	Line      string    `json:"line"`
	Timestamp time.Time `json:"timestamp"`
}

func (e ProgressEvent) Type() uint32   { return TypeProgress }
func (e ProgressEvent) Name() string   { return "progress" }
func (e ProgressEvent) Process() int64 { return e.ProcessID }

// ExitEvent is emitted once a process has been reaped.
// Stopped is true when the exit was caused by Stop.
type ExitEvent struct {
	ProcessID int64     `json:"process_id"`
	Reference string    `json:"reference,omitempty"`
	ExitCode  int       `json:"exit_code"`
	Stopped   bool      `json:"stopped"`
	Timestamp time.Time `json:"timestamp"`
}

func (e ExitEvent) Type() uint32   { return TypeExit }
func (e ExitEvent) Name() string   { return "exit" }
func (e ExitEvent) Process() int64 { return e.ProcessID }
