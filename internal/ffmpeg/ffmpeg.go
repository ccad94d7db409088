// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

const defaultProbeTimeout = 30 * time.Second

// FFmpeg probes a configured FFmpeg binary and checks inputs against the
// configured policy. Every probe accepts an explicit binary; an empty one
// means the configured default, anything else must be in the allowlist.
type FFmpeg interface {
	Binary() string
	Resolve(binary string) (string, error)
	Version(ctx context.Context, binary string) (string, error)
	BuildInfo(ctx context.Context, binary string) (Info, error)
	MediaInfo(ctx context.Context, binary, input string) (string, error)
	ValidateInput(address string) bool
	ValidateArgs(args []string) error
}

// Config for FFmpeg
type Config struct {
	Binary string
	// Binaries callers may pick instead of Binary.
	Binaries     []string
	ProbeTimeout time.Duration
	InputAllow   []string
	InputBlock   []string
}

type ffmpeg struct {
	binary      string
	allowed     map[string]struct{}
	timeout     time.Duration
	validatorIn Validator
}

// New creates FFmpeg. The binary is not checked here; it may not be
// installed yet.
func New(config Config) (FFmpeg, error) {
	f := &ffmpeg{
		binary:  config.Binary,
		timeout: config.ProbeTimeout,
	}
	if f.binary == "" {
		f.binary = "ffmpeg"
	}
	if f.timeout <= 0 {
		f.timeout = defaultProbeTimeout
	}

	f.allowed = map[string]struct{}{filepath.Clean(f.binary): {}}
	for _, b := range config.Binaries {
		if b != "" {
			f.allowed[filepath.Clean(b)] = struct{}{}
		}
	}

	v, err := NewValidator(config.InputAllow, config.InputBlock)
	if err != nil {
		return nil, fmt.Errorf("input policy: %w", err)
	}
	f.validatorIn = v

	return f, nil
}

func (f *ffmpeg) Binary() string {
	return f.binary
}

// Resolve returns the binary to run for a caller supplied one.
func (f *ffmpeg) Resolve(binary string) (string, error) {
	if binary == "" {
		return f.binary, nil
	}
	if _, ok := f.allowed[filepath.Clean(binary)]; !ok {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotAllowed, binary)
	}
	return binary, nil
}

func (f *ffmpeg) Version(ctx context.Context, binary string) (string, error) {
	binary, err := f.Resolve(binary)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return Version(ctx, binary)
}

func (f *ffmpeg) BuildInfo(ctx context.Context, binary string) (Info, error) {
	binary, err := f.Resolve(binary)
	if err != nil {
		return Info{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return BuildInfo(ctx, binary)
}

func (f *ffmpeg) MediaInfo(ctx context.Context, binary, input string) (string, error) {
	binary, err := f.Resolve(binary)
	if err != nil {
		return "", err
	}
	if !f.ValidateInput(input) {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, input)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return MediaInfo(ctx, binary, input)
}

func (f *ffmpeg) ValidateInput(address string) bool {
	return f.validatorIn.IsValid(address)
}

func (f *ffmpeg) ValidateArgs(args []string) error {
	for _, in := range Inputs(args) {
		if !f.ValidateInput(in) {
			return fmt.Errorf("%w: %s", ErrInvalidInput, in)
		}
	}
	return nil
}
