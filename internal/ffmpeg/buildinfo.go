// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package ffmpeg

import (
	"context"
	"regexp"
)

// Library is a linked av library as reported by -version
type Library struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

// Info is the parsed -version report of an FFmpeg build.
// Version is empty for builds that do not report a numeric version,
// e.g. git snapshots; Banner always holds the first line.
type Info struct {
	Banner        string    `json:"banner"`
	Version       string    `json:"version"`
	Compiler      string    `json:"compiler"`
	Configuration string    `json:"configuration"`
	Libraries     []Library `json:"libraries"`
}

var (
	reVersion       = regexp.MustCompile(`^\S+ version n?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
)

// BuildInfo runs the binary with -version and parses the report.
func BuildInfo(ctx context.Context, binary string) (Info, error) {
	path, err := resolve(binary)
	if err != nil {
		return Info{}, err
	}

	stdout, _, err := run(ctx, path, "-version")
	if err != nil {
		return Info{}, err
	}

	info := parseVersion(stdout)
	if info.Banner == "" {
		return Info{}, ErrEmptyVersionOutput
	}
	return info, nil
}

func parseVersion(data string) Info {
	f := Info{Banner: firstLine(data)}

	if m := reVersion.FindStringSubmatch(data); m != nil {
		f.Version = m[1]
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindStringSubmatch(data); m != nil {
		f.Compiler = m[1]
	}
	if m := reConfiguration.FindStringSubmatch(data); m != nil {
		f.Configuration = m[1]
	}
	for _, m := range reLibrary.FindAllStringSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     m[1],
			Compiled: m[2],
			Linked:   m[3],
		})
	}
	return f
}
