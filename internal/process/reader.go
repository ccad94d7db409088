// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package process

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ZSC714725/ffbridge/internal/events"
	"github.com/ZSC714725/ffbridge/internal/logger"
)

const (
	progressTimeMarker    = "time="
	progressBitrateMarker = "bitrate="

	maxLineSize = 1024 * 1024
)

// IsProgress reports whether line is an FFmpeg progress report.
func IsProgress(line string) bool {
	return strings.Contains(line, progressTimeMarker) && strings.Contains(line, progressBitrateMarker)
}

// streamReader turns one output pipe into events until the pipe hits EOF.
type streamReader struct {
	handle    Handle
	reference string
	stream    events.Stream
	sink      events.Sink
	logger    logger.Logger
}

func (r *streamReader) run(rd io.Reader) {
	split := &longLineSplitter{max: maxLineSize}
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(split.split)

	dropped := 0
	reportDropped := func() {
		if split.dropped != dropped {
			r.logger.Error("process %d %s: dropped %d line(s) longer than %d bytes", r.handle, r.stream, split.dropped-dropped, maxLineSize)
			dropped = split.dropped
		}
	}

	for scanner.Scan() {
		reportDropped()

		data := scanner.Bytes()
		// Lines that are not valid UTF-8 are dropped, best effort only.
		if !utf8.Valid(data) {
			continue
		}
		line := string(data)
		now := time.Now()

		r.emit(events.OutputEvent{
			ProcessID: int64(r.handle),
			Reference: r.reference,
			Stream:    r.stream,
			Line:      line,
			Timestamp: now,
		})
		if IsProgress(line) {
			r.emit(events.ProgressEvent{
				ProcessID: int64(r.handle),
				Reference: r.reference,
				Line:      line,
				Timestamp: now,
			})
		}
	}
	reportDropped()

	if err := scanner.Err(); err != nil {
		r.logger.Error("process %d %s: %v", r.handle, r.stream, err)
		// keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, rd)
	}
}

func (r *streamReader) emit(ev events.Event) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("process %d %s: event sink panic: %v", r.handle, r.stream, v)
		}
	}()
	if err := r.sink.Emit(ev); err != nil {
		r.logger.Debug("process %d %s: dropped %s event: %v", r.handle, r.stream, ev.Name(), err)
	}
}

// longLineSplitter wraps scanLine. A line that does not end within max
// bytes is skipped up to its terminator instead of failing the scan.
type longLineSplitter struct {
	max      int
	skipping bool
	dropped  int
}

func (s *longLineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if s.skipping {
		if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
			s.skipping = false
			return i + 1, nil, nil
		}
		if atEOF {
			s.skipping = false
		}
		return len(data), nil, nil
	}

	advance, token, err := scanLine(data, atEOF)
	if token == nil && err == nil && len(data)-advance >= s.max {
		s.skipping = true
		s.dropped++
		return len(data), nil, nil
	}
	return advance, token, err
}

// scanLine splits on \n and \r so that FFmpeg's carriage-return progress
// updates arrive as separate lines. Empty lines are skipped.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
