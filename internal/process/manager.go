// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/ZSC714725/ffbridge/internal/events"
	"github.com/ZSC714725/ffbridge/internal/logger"
)

const defaultStopTimeout = 5 * time.Second

// Config for a Manager
type Config struct {
	// Registry is shared with other components; a new one is created when nil.
	Registry *Registry
	Sink     events.Sink
	Logger   logger.Logger
	// ReapOnExit drops the registry entry of a process that exits on its own.
	// When false the entry stays until Stop is called.
	ReapOnExit bool
	// StopTimeout bounds how long Stop waits for a killed process to be reaped.
	StopTimeout time.Duration
	// Env for child processes, nil inherits the host environment.
	Env []string
	// NewUsage creates the resource sampler for each process.
	NewUsage func() Usage
}

// SpawnConfig describes one process to start
type SpawnConfig struct {
	Binary string
	Args   []string
	// Reference is an optional caller tag copied onto every event.
	// A short uuid is generated when empty.
	Reference string
}

// Manager launches, tracks and terminates child processes.
type Manager struct {
	registry    *Registry
	sink        events.Sink
	logger      logger.Logger
	reapOnExit  bool
	stopTimeout time.Duration
	env         []string
	newUsage    func() Usage
	kill        func(*os.Process) error
}

// NewManager creates a Manager
func NewManager(config Config) *Manager {
	m := &Manager{
		registry:    config.Registry,
		sink:        config.Sink,
		logger:      config.Logger,
		reapOnExit:  config.ReapOnExit,
		stopTimeout: config.StopTimeout,
		env:         config.Env,
		newUsage:    config.NewUsage,
		kill:        (*os.Process).Kill,
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	if m.sink == nil {
		m.sink = events.Discard
	}
	if m.logger == nil {
		m.logger = logger.Nop()
	}
	if m.stopTimeout <= 0 {
		m.stopTimeout = defaultStopTimeout
	}
	if m.newUsage == nil {
		m.newUsage = NewSysUsage
	}
	return m
}

// Registry returns the registry the manager tracks processes in.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Spawn starts the process, registers it and starts one reader per output
// pipe. It returns as soon as the process runs; the handle is valid for
// lookups before any output arrives.
func (m *Manager) Spawn(config SpawnConfig) (Handle, error) {
	p, err := m.Start(config)
	if err != nil {
		return 0, err
	}
	return p.Handle(), nil
}

// Start is Spawn returning the tracked process itself.
func (m *Manager) Start(config SpawnConfig) (*ManagedProcess, error) {
	if len(config.Binary) == 0 {
		return nil, fmt.Errorf("%w: no binary given", ErrSpawnFailed)
	}

	cmd := exec.Command(config.Binary, config.Args...)
	cmd.Env = m.env

	// Pipes are attached before Start, so a capture failure never leaves
	// an unregistered child behind.
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout: %v", ErrPipeCaptureFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("%w: stderr: %v", ErrPipeCaptureFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	ref := config.Reference
	if len(ref) == 0 {
		ref = shortuuid.New()
	}

	p := &ManagedProcess{
		pid:       cmd.Process.Pid,
		binary:    config.Binary,
		args:      append([]string(nil), config.Args...),
		reference: ref,
		startedAt: time.Now(),
		cmd:       cmd,
		usage:     m.newUsage(),
		done:      make(chan struct{}),
	}
	if err := p.usage.Start(p.pid); err != nil {
		m.logger.Debug("process pid %d: usage sampling unavailable: %v", p.pid, err)
	}

	h := m.registry.Register(p)

	var readers sync.WaitGroup
	readers.Add(2)
	go m.read(h, ref, events.Stdout, stdout, &readers)
	go m.read(h, ref, events.Stderr, stderr, &readers)
	go m.waiter(p, &readers)

	m.logger.Info("process %d started (pid %d, ref %s): %s %v", h, p.pid, ref, config.Binary, config.Args)
	return p, nil
}

func (m *Manager) read(h Handle, ref string, stream events.Stream, rd io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	r := &streamReader{
		handle:    h,
		reference: ref,
		stream:    stream,
		sink:      m.sink,
		logger:    m.logger,
	}
	r.run(rd)
}

// waiter reaps the process once both readers have seen EOF.
func (m *Manager) waiter(p *ManagedProcess, readers *sync.WaitGroup) {
	readers.Wait()

	err := p.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			m.logger.Error("process %d (pid %d): wait failed: %v", p.handle, p.pid, err)
		}
	}

	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	p.usage.Stop()
	p.exitCode = code
	close(p.done)

	stopped := p.stopped.Load()
	if !stopped && m.reapOnExit {
		m.registry.removeIf(p.handle, p)
	}

	m.logger.Info("process %d exited (pid %d, code %d, stopped %t)", p.handle, p.pid, code, stopped)

	ev := events.ExitEvent{
		ProcessID: int64(p.handle),
		Reference: p.reference,
		ExitCode:  code,
		Stopped:   stopped,
		Timestamp: time.Now(),
	}
	func() {
		defer func() {
			if v := recover(); v != nil {
				m.logger.Error("process %d: event sink panic: %v", p.handle, v)
			}
		}()
		_ = m.sink.Emit(ev)
	}()
}

// Stop kills the process behind h and waits for it to be reaped.
// It returns false without error when h is not tracked. A process that
// does not get reaped within the stop timeout is logged, not reported.
func (m *Manager) Stop(h Handle) (bool, error) {
	p, ok := m.registry.Remove(h)
	if !ok {
		return false, nil
	}
	p.stopped.Store(true)

	if err := m.kill(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// Still running, so keep it reachable for another Stop.
		p.stopped.Store(false)
		if !m.registry.restore(h, p) {
			m.logger.Error("process %d (pid %d): kill failed, process is orphaned: %v", h, p.pid, err)
		} else {
			m.logger.Error("process %d (pid %d): kill failed: %v", h, p.pid, err)
		}
		return false, fmt.Errorf("%w: %v", ErrKillFailed, err)
	}

	timer := time.NewTimer(m.stopTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		m.logger.Error("process %d (pid %d): not reaped after %s", h, p.pid, m.stopTimeout)
	}

	m.logger.Info("process %d stopped", h)
	return true, nil
}

// StopAll stops every tracked process concurrently and returns how many
// were stopped.
func (m *Manager) StopAll() int {
	procs := m.registry.List()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		stopped int
	)
	for _, p := range procs {
		wg.Add(1)
		go func(h Handle) {
			defer wg.Done()
			ok, err := m.Stop(h)
			if err != nil || !ok {
				return
			}
			mu.Lock()
			stopped++
			mu.Unlock()
		}(p.handle)
	}
	wg.Wait()
	return stopped
}

// Status returns a snapshot of the process behind h.
func (m *Manager) Status(h Handle) (Status, error) {
	p, ok := m.registry.Get(h)
	if !ok {
		return Status{}, ErrNotFound
	}
	return p.status(), nil
}

// List returns the status of every tracked process ordered by handle.
func (m *Manager) List() []Status {
	procs := m.registry.List()
	out := make([]Status, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.status())
	}
	return out
}
