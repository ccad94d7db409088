// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package ffmpeg

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	f, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", f.Binary())
}

func TestNew_InvalidPolicy(t *testing.T) {
	_, err := New(Config{InputBlock: []string{"("}})
	assert.Error(t, err)
}

func TestFFmpeg_UsesConfiguredBinary(t *testing.T) {
	bin := writeScript(t, fakeFFmpeg)

	f, err := New(Config{Binary: bin, ProbeTimeout: 5 * time.Second})
	require.NoError(t, err)

	v, err := f.Version(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, v, "ffmpeg version 6.1.1")

	info, err := f.BuildInfo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "6.1.1", info.Version)

	_, err = f.Version(context.Background(), bin+".missing")
	assert.ErrorIs(t, err, ErrBinaryNotAllowed)
}

func TestFFmpeg_BinaryAllowlist(t *testing.T) {
	bin := writeScript(t, fakeFFmpeg)
	other := writeScript(t, `echo "should not run"; exit 0`)
	missing := filepath.Join(t.TempDir(), "ffmpeg-7")

	f, err := New(Config{Binary: "ffmpeg", Binaries: []string{bin, missing, ""}})
	require.NoError(t, err)

	got, err := f.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", got)

	got, err = f.Resolve(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	for _, b := range []string{other, "/bin/sh", "sh", "../ffmpeg"} {
		_, err = f.Resolve(b)
		assert.ErrorIs(t, err, ErrBinaryNotAllowed, b)
	}

	v, err := f.Version(context.Background(), bin)
	require.NoError(t, err)
	assert.Contains(t, v, "ffmpeg version 6.1.1")

	_, err = f.Version(context.Background(), other)
	assert.ErrorIs(t, err, ErrBinaryNotAllowed)
	_, err = f.BuildInfo(context.Background(), other)
	assert.ErrorIs(t, err, ErrBinaryNotAllowed)
	_, err = f.MediaInfo(context.Background(), other, "/media/a.mkv")
	assert.ErrorIs(t, err, ErrBinaryNotAllowed)

	_, err = f.Version(context.Background(), missing)
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestFFmpeg_MediaInfoPolicy(t *testing.T) {
	bin := writeScript(t, fakeFFmpeg)

	f, err := New(Config{Binary: bin, InputBlock: []string{`^rtmp://`}})
	require.NoError(t, err)

	_, err = f.MediaInfo(context.Background(), "", "rtmp://example.com/live")
	assert.ErrorIs(t, err, ErrInvalidInput)

	info, err := f.MediaInfo(context.Background(), "", "/media/disc/BDMV/STREAM/00001.m2ts")
	require.NoError(t, err)
	assert.Contains(t, info, "00001.m2ts")
}

func TestFFmpeg_ProbeTimeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)

	f, err := New(Config{Binary: bin, ProbeTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	_, err = f.Version(context.Background(), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFFmpeg_ValidateArgs(t *testing.T) {
	f, err := New(Config{InputAllow: []string{`^/media/`}})
	require.NoError(t, err)

	assert.NoError(t, f.ValidateArgs([]string{"-y", "-i", "/media/a.mkv", "-c", "copy", "/tmp/out.mkv"}))
	assert.ErrorIs(t, f.ValidateArgs([]string{"-i", "/media/a.mkv", "-i", "/etc/passwd", "out.mkv"}), ErrInvalidInput)
	assert.NoError(t, f.ValidateArgs([]string{"-version"}))
}
