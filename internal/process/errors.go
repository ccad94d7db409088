// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package process

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("process not found")
	ErrSpawnFailed       = errors.New("failed to start process")
	ErrPipeCaptureFailed = errors.New("failed to capture process output")
	ErrKillFailed        = errors.New("failed to kill process")
	ErrExitedNonZero     = errors.New("process exited with non-zero status")
)

// ExitError reports a run-to-completion process that exited non-zero,
// together with what it wrote to stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("process exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return ErrExitedNonZero }
