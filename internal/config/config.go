// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZSC714725/ffbridge/internal/logger"
)

// Config 应用配置
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Process ProcessConfig `yaml:"process"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
	// CORSOrigins may call the API from a browser. Other origins get 403.
	CORSOrigins []string `yaml:"cors_origins"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path string `yaml:"path"`
	// Binaries callers may select instead of Path.
	Binaries     []string `yaml:"binaries"`
	ProbeTimeout uint64   `yaml:"probe_timeout_seconds"`
	InputAllow   []string `yaml:"input_allow"`
	InputBlock   []string `yaml:"input_block"`
}

// ProcessConfig 子进程管理配置
type ProcessConfig struct {
	// ReapOnExit removes a registry entry once its process exits on its own.
	// Pointer so that an explicit false in the file is kept.
	ReapOnExit  *bool  `yaml:"reap_on_exit"`
	StopTimeout uint64 `yaml:"stop_timeout_seconds"`
	EventBuffer int    `yaml:"event_buffer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

const (
	defaultBind         = "127.0.0.1:8080"
	defaultFFmpeg       = "ffmpeg"
	defaultProbeTimeout = 30
	defaultStopTimeout  = 5
	defaultEventBuffer  = 256
	defaultLogLevel     = "info"
)

// Default 返回默认配置
func Default() *Config {
	reap := true
	return &Config{
		Server: ServerConfig{Bind: defaultBind},
		FFmpeg: FFmpegConfig{Path: defaultFFmpeg, ProbeTimeout: defaultProbeTimeout},
		Process: ProcessConfig{
			ReapOnExit:  &reap,
			StopTimeout: defaultStopTimeout,
			EventBuffer: defaultEventBuffer,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = defaultBind
	}
	if cfg.FFmpeg.Path == "" {
		cfg.FFmpeg.Path = defaultFFmpeg
	}
	if cfg.FFmpeg.ProbeTimeout == 0 {
		cfg.FFmpeg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Process.ReapOnExit == nil {
		reap := true
		cfg.Process.ReapOnExit = &reap
	}
	if cfg.Process.StopTimeout == 0 {
		cfg.Process.StopTimeout = defaultStopTimeout
	}
	if cfg.Process.EventBuffer <= 0 {
		cfg.Process.EventBuffer = defaultEventBuffer
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}

	return cfg, nil
}

// ProbeTimeoutDuration returns the probe timeout as a duration.
func (c *Config) ProbeTimeoutDuration() time.Duration {
	return time.Duration(c.FFmpeg.ProbeTimeout) * time.Second
}

// StopTimeoutDuration returns how long Stop waits for a killed process to be reaped.
func (c *Config) StopTimeoutDuration() time.Duration {
	return time.Duration(c.Process.StopTimeout) * time.Second
}

// Reap reports whether naturally exited processes are removed from the registry.
func (c *Config) Reap() bool {
	return c.Process.ReapOnExit == nil || *c.Process.ReapOnExit
}

// Logger converts the log section into a logger.Config.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
