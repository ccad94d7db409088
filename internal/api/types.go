// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package api

// ProcessRequest for spawning a process
type ProcessRequest struct {
	Binary    string   `json:"binary"`
	Args      []string `json:"args"`
	Reference string   `json:"reference"`
}

// ProcessStarted is returned by a successful spawn
type ProcessStarted struct {
	ID        int64  `json:"id"`
	PID       int    `json:"pid"`
	Reference string `json:"reference"`
}

// ProcessState for API
type ProcessState struct {
	ID        int64    `json:"id"`
	PID       int      `json:"pid"`
	Reference string   `json:"reference"`
	Binary    string   `json:"binary"`
	Args      []string `json:"args"`
	Running   bool     `json:"running"`
	ExitCode  *int     `json:"exit_code,omitempty"`
	StartedAt int64    `json:"started_at"`
	Runtime   int64    `json:"runtime_seconds"`
	Memory    uint64   `json:"memory_bytes"`
	CPU       float64  `json:"cpu_usage"`
}

// StopResponse tells whether a tracked process was found and killed
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// VersionResponse for the version probe
type VersionResponse struct {
	Version string `json:"version"`
}

// MediaInfoRequest for the media info probe
type MediaInfoRequest struct {
	Binary string `json:"binary"`
	Input  string `json:"input" binding:"required"`
}

// MediaInfoResponse carries FFmpeg's raw analysis text
type MediaInfoResponse struct {
	Info string `json:"info"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
