// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/ffbridge/internal/events"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
)

const defaultEventBuffer = 256

// Config holds the handler dependencies
type Config struct {
	Manager     *process.Manager
	FFmpeg      ffmpeg.FFmpeg
	Bus         *events.Bus
	Logger      logger.Logger
	EventBuffer int
}

// Handler holds dependencies
type Handler struct {
	manager     *process.Manager
	ffmpeg      ffmpeg.FFmpeg
	bus         *events.Bus
	logger      logger.Logger
	eventBuffer int
}

// NewHandler creates API handler
func NewHandler(config Config) *Handler {
	h := &Handler{
		manager:     config.Manager,
		ffmpeg:      config.FFmpeg,
		bus:         config.Bus,
		logger:      config.Logger,
		eventBuffer: config.EventBuffer,
	}
	if h.logger == nil {
		h.logger = logger.Nop()
	}
	if h.eventBuffer <= 0 {
		h.eventBuffer = defaultEventBuffer
	}
	return h
}

// Register mounts the API on g
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/process", h.ListProcesses)
	g.POST("/process", h.AddProcess)
	g.GET("/process/:id", h.GetProcess)
	g.DELETE("/process/:id", h.DeleteProcess)

	g.GET("/ffmpeg/version", h.Version)
	g.GET("/ffmpeg/buildinfo", h.BuildInfo)
	g.POST("/ffmpeg/mediainfo", h.MediaInfo)

	g.GET("/events", h.Events)
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// probeStatus maps probe failures to HTTP status codes
func probeStatus(err error) int {
	switch {
	case errors.Is(err, ffmpeg.ErrExecutableNotFound):
		return http.StatusNotFound
	case errors.Is(err, ffmpeg.ErrNotARegularFile), errors.Is(err, ffmpeg.ErrInvalidInput),
		errors.Is(err, ffmpeg.ErrBinaryNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, process.ErrExitedNonZero), errors.Is(err, ffmpeg.ErrEmptyVersionOutput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseHandle(c *gin.Context) (process.Handle, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Invalid process ID", err.Error())
		return 0, false
	}
	return process.Handle(id), true
}

// AddProcess POST /api/v1/process
func (h *Handler) AddProcess(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	if err := h.ffmpeg.ValidateArgs(req.Args); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	binary, err := h.ffmpeg.Resolve(req.Binary)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Binary not allowed", err.Error())
		return
	}

	p, err := h.manager.Start(process.SpawnConfig{
		Binary:    binary,
		Args:      req.Args,
		Reference: req.Reference,
	})
	if err != nil {
		errResp(c, http.StatusBadRequest, "Spawn failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, ProcessStarted{
		ID:        int64(p.Handle()),
		PID:       p.PID(),
		Reference: p.Reference(),
	})
}

// ListProcesses GET /api/v1/process
func (h *Handler) ListProcesses(c *gin.Context) {
	list := h.manager.List()
	states := make([]ProcessState, 0, len(list))
	for _, st := range list {
		states = append(states, statusToState(st))
	}
	c.JSON(http.StatusOK, states)
}

// GetProcess GET /api/v1/process/:id
func (h *Handler) GetProcess(c *gin.Context) {
	id, ok := parseHandle(c)
	if !ok {
		return
	}

	st, err := h.manager.Status(id)
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown process ID", err.Error())
		return
	}
	c.JSON(http.StatusOK, statusToState(st))
}

// DeleteProcess DELETE /api/v1/process/:id
// An unknown ID is not an error, the response just reports stopped=false.
func (h *Handler) DeleteProcess(c *gin.Context) {
	id, ok := parseHandle(c)
	if !ok {
		return
	}

	stopped, err := h.manager.Stop(id)
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Stop failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, StopResponse{Stopped: stopped})
}

// Version GET /api/v1/ffmpeg/version?path=
func (h *Handler) Version(c *gin.Context) {
	v, err := h.ffmpeg.Version(c.Request.Context(), c.Query("path"))
	if err != nil {
		errResp(c, probeStatus(err), "Version probe failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, VersionResponse{Version: v})
}

// BuildInfo GET /api/v1/ffmpeg/buildinfo?path=
func (h *Handler) BuildInfo(c *gin.Context) {
	info, err := h.ffmpeg.BuildInfo(c.Request.Context(), c.Query("path"))
	if err != nil {
		errResp(c, probeStatus(err), "Build info probe failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, info)
}

// MediaInfo POST /api/v1/ffmpeg/mediainfo
func (h *Handler) MediaInfo(c *gin.Context) {
	var req MediaInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	info, err := h.ffmpeg.MediaInfo(c.Request.Context(), req.Binary, req.Input)
	if err != nil {
		errResp(c, probeStatus(err), "Media info probe failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, MediaInfoResponse{Info: info})
}

// Events GET /api/v1/events?id=
// Streams output, progress and exit events as server-sent events in the
// order they were emitted. Slow clients lose events rather than holding up
// the readers.
func (h *Handler) Events(c *gin.Context) {
	var only int64
	if s := c.Query("id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			errResp(c, http.StatusBadRequest, "Invalid process ID", err.Error())
			return
		}
		only = id
	}

	ch := make(chan events.Event, h.eventBuffer)
	unsub := h.bus.SubscribeChannel(ch)
	defer unsub()

	h.logger.Debug("events client %s connected (id filter %d)", c.ClientIP(), only)

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev := <-ch:
			if only != 0 && ev.Process() != only {
				return true
			}
			c.SSEvent(ev.Name(), ev)
			return true
		}
	})

	h.logger.Debug("events client %s disconnected", c.ClientIP())
}

func statusToState(st process.Status) ProcessState {
	s := ProcessState{
		ID:        int64(st.Handle),
		PID:       st.PID,
		Reference: st.Reference,
		Binary:    st.Binary,
		Args:      st.Args,
		Running:   st.Running,
		StartedAt: st.StartedAt.Unix(),
		Runtime:   int64(st.Runtime.Seconds()),
		Memory:    st.Memory,
		CPU:       st.CPU,
	}
	if !st.Running {
		code := st.ExitCode
		s.ExitCode = &code
	}
	return s
}
