// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package ffmpeg

import "errors"

var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrNotARegularFile    = errors.New("executable is not a regular file")
	ErrEmptyVersionOutput = errors.New("empty version output")
	ErrInvalidInput       = errors.New("invalid input address")
	ErrBinaryNotAllowed   = errors.New("binary not allowed")
)
