// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/ffbridge/internal/api"
	"github.com/ZSC714725/ffbridge/internal/config"
	"github.com/ZSC714725/ffbridge/internal/events"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}
	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}

	closer := logger.Setup(cfg.Logger())
	defer closer.Close()

	l := logger.New("ffbridge")

	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:       cfg.FFmpeg.Path,
		Binaries:     cfg.FFmpeg.Binaries,
		ProbeTimeout: cfg.ProbeTimeoutDuration(),
		InputAllow:   cfg.FFmpeg.InputAllow,
		InputBlock:   cfg.FFmpeg.InputBlock,
	})
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}

	bus := events.NewBus()
	unsub := bus.Subscribe(func(ev events.ExitEvent) {
		l.Info("process %d (%s) exited with code %d, stopped=%t", ev.ProcessID, ev.Reference, ev.ExitCode, ev.Stopped)
	})
	defer unsub()

	manager := process.NewManager(process.Config{
		Registry:    process.NewRegistry(),
		Sink:        bus,
		Logger:      logger.New("process"),
		ReapOnExit:  cfg.Reap(),
		StopTimeout: cfg.StopTimeoutDuration(),
	})

	handler := api.NewHandler(api.Config{
		Manager:     manager,
		FFmpeg:      ff,
		Bus:         bus,
		Logger:      logger.New("api"),
		EventBuffer: cfg.Process.EventBuffer,
	})

	corsMiddleware, err := api.CORS(cfg.Server.CORSOrigins)
	if err != nil {
		log.Fatalf("CORS: %v", err)
	}

	r := gin.Default()
	r.Use(corsMiddleware)
	handler.Register(r.Group("/api/v1"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Request contexts end with ctx so event streams close on shutdown.
	srv := &http.Server{
		Addr:        cfg.Server.Bind,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		l.Info("listening on %s (ffmpeg: %s)", cfg.Server.Bind, ff.Binary())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	// Children go first so their exit events are still logged.
	n := manager.StopAll()
	l.Info("stopped %d processes", n)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown: %v", err)
	}
}
