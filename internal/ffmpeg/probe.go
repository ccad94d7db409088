// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ZSC714725/ffbridge/internal/process"
)

// waitDelay bounds how long a killed probe may keep its pipes open.
const waitDelay = time.Second

// Version runs the binary with -version and returns the first line it
// prints on stdout.
func Version(ctx context.Context, binary string) (string, error) {
	path, err := resolve(binary)
	if err != nil {
		return "", err
	}

	stdout, _, err := run(ctx, path, "-version")
	if err != nil {
		return "", err
	}

	line := firstLine(stdout)
	if line == "" {
		return "", ErrEmptyVersionOutput
	}
	return line, nil
}

// MediaInfo runs the binary against input without an output and returns
// everything it wrote to stderr. FFmpeg prints its stream analysis there
// and exits non-zero because no output was given, so the exit status is
// ignored. Callers parse the text themselves.
func MediaInfo(ctx context.Context, binary, input string) (string, error) {
	_, stderr, err := run(ctx, binary, "-i", input, "-hide_banner")
	if err != nil {
		var exitErr *process.ExitError
		if !errors.As(err, &exitErr) {
			return "", err
		}
	}
	return stderr, nil
}

// resolve checks that binary names an existing regular file. Bare names
// are looked up in PATH.
func resolve(binary string) (string, error) {
	if len(binary) == 0 {
		return "", fmt.Errorf("%w: no binary given", ErrExecutableNotFound)
	}

	path := binary
	if !strings.ContainsAny(binary, `/\`) {
		p, err := exec.LookPath(binary)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, binary)
		}
		path = p
	}

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotARegularFile, path)
	}
	return path, nil
}

// run executes binary to completion. A non-zero exit is reported as
// *process.ExitError carrying stderr.
func run(ctx context.Context, binary string, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.WaitDelay = waitDelay

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", "", fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return outBuf.String(), errBuf.String(), &process.ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: errBuf.String(),
			}
		}
		return "", "", fmt.Errorf("%w: %v", process.ErrSpawnFailed, err)
	}
	return outBuf.String(), errBuf.String(), nil
}

func firstLine(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
