package config

import (
	"fmt"
	"time"
)

type Config struct {
	API         APIConfig         `yaml:"api"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Completion  CompletionConfig  `yaml:"completion"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Server      ServerConfig      `yaml:"server"`
	Gemini      GeminiConfig      `yaml:"gemini"`
}

// APIConfig points the client at the backend. The base URL is fixed configuration.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FFmpegConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	ProbePath    string `yaml:"probe_path"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	InputName    string `yaml:"input_name"`
	OutputName   string `yaml:"output_name"`
	WorkDir      string `yaml:"work_dir"`
}

type IngestConfig struct {
	DefaultPrompt string `yaml:"default_prompt"`
}

type CompletionConfig struct {
	Temperature  float64       `yaml:"temperature"`
	CopyAckDelay time.Duration `yaml:"copy_ack_delay"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	DatabasePath   string   `yaml:"database_path"`
	UploadDir      string   `yaml:"upload_dir"`
	MaxUploadMB    int64    `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GeminiConfig struct {
	Model   string   `yaml:"model"`
	APIKeys []string `yaml:"api_keys"`
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 1 {
		return fmt.Errorf("completion.temperature must be within [0,1], got %v", c.Completion.Temperature)
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Minute
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.FFmpeg.ProbePath == "" {
		c.FFmpeg.ProbePath = "ffprobe"
	}
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = "libmp3lame"
	}
	if c.FFmpeg.AudioBitrate == "" {
		c.FFmpeg.AudioBitrate = "20k"
	}
	if c.FFmpeg.InputName == "" {
		c.FFmpeg.InputName = "input.mp4"
	}
	if c.FFmpeg.OutputName == "" {
		c.FFmpeg.OutputName = "output.mp3"
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 0.5
	}
	if c.Completion.CopyAckDelay == 0 {
		c.Completion.CopyAckDelay = 2 * time.Second
	}
	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3333"
	}
	if c.Server.DatabasePath == "" {
		c.Server.DatabasePath = "data/upload-ai.db"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "data/uploads"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 25
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}

	return nil
}
