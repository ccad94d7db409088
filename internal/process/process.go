// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发
//
// Package process spawns FFmpeg-like child processes, streams their output
// as events and terminates them on request.

package process

import (
	"os/exec"
	"sync/atomic"
	"time"
)

// ManagedProcess is a running (or not yet reaped) child process.
// Its output pipes belong to the stream readers; the Manager owns cmd.
type ManagedProcess struct {
	handle    Handle
	pid       int
	binary    string
	args      []string
	reference string
	startedAt time.Time

	cmd     *exec.Cmd
	usage   Usage
	stopped atomic.Bool

	// exitCode is written before done is closed.
	done     chan struct{}
	exitCode int
}

func (p *ManagedProcess) Handle() Handle       { return p.handle }
func (p *ManagedProcess) PID() int             { return p.pid }
func (p *ManagedProcess) Binary() string       { return p.binary }
func (p *ManagedProcess) Reference() string    { return p.reference }
func (p *ManagedProcess) StartedAt() time.Time { return p.startedAt }

// Args returns a copy of the command line arguments.
func (p *ManagedProcess) Args() []string {
	return append([]string(nil), p.args...)
}

// Done is closed once the process has been reaped.
func (p *ManagedProcess) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code once the process has been reaped.
// A process ended by a signal reports -1.
func (p *ManagedProcess) ExitCode() (int, bool) {
	select {
	case <-p.done:
		return p.exitCode, true
	default:
		return 0, false
	}
}

// Status is a snapshot of a tracked process
type Status struct {
	Handle    Handle
	PID       int
	Reference string
	Binary    string
	Args      []string
	Running   bool
	ExitCode  int
	StartedAt time.Time
	Runtime   time.Duration
	CPU       float64
	Memory    uint64
}

func (p *ManagedProcess) status() Status {
	s := Status{
		Handle:    p.handle,
		PID:       p.pid,
		Reference: p.reference,
		Binary:    p.binary,
		Args:      p.Args(),
		StartedAt: p.startedAt,
		Runtime:   time.Since(p.startedAt),
	}
	if code, exited := p.ExitCode(); exited {
		s.ExitCode = code
		return s
	}
	s.Running = true
	s.CPU, s.Memory = p.usage.Current()
	return s
}
