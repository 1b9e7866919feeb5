package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Tools   ToolsConfig   `yaml:"tools"`
	LLM     LLMConfig     `yaml:"llm"`
	Speech  SpeechConfig  `yaml:"speech"`
	Video   VideoConfig   `yaml:"video"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Inbox   InboxConfig   `yaml:"inbox"`
	Logging LoggingConfig `yaml:"logging"`
}

type PathsConfig struct {
	DataRoot string `yaml:"data_root"`
	Assets   string `yaml:"assets"`
	Work     string `yaml:"work"`
	Output   string `yaml:"output"`
}

type ToolsConfig struct {
	Pdftoppm       string `yaml:"pdftoppm"`
	Pdftotext      string `yaml:"pdftotext"`
	Espeak         string `yaml:"espeak"`
	FFmpeg         string `yaml:"ffmpeg"`
	FFprobe        string `yaml:"ffprobe"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LLMConfig struct {
	Provider       string   `yaml:"provider"`
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	APIKeys        []string `yaml:"api_keys"`
	Temperature    float64  `yaml:"temperature"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type SpeechConfig struct {
	Voice          string `yaml:"voice"`
	WordsPerMinute int    `yaml:"words_per_minute"`
}

type VideoConfig struct {
	MinSlideSeconds int    `yaml:"min_slide_seconds"`
	DefaultProfile  string `yaml:"default_profile"`
}

type JobsConfig struct {
	// MaxConcurrent bounds concurrently running jobs; 0 means unbounded.
	MaxConcurrent   int `yaml:"max_concurrent"`
	ListLimit       int `yaml:"list_limit"`
	DefaultDuration int `yaml:"default_duration"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
}

type InboxConfig struct {
	Dir   string `yaml:"dir"`
	Owner string `yaml:"owner"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when a key is absent from the file
func Default() *Config {
	return &Config{
		Paths: PathsConfig{DataRoot: "data"},
		Tools: ToolsConfig{
			Pdftoppm:  "pdftoppm",
			Pdftotext: "pdftotext",
			Espeak:    "espeak-ng",
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			BaseURL:        "http://localhost:11434",
			Model:          "llama3",
			Temperature:    0.6,
			TimeoutSeconds: 120,
		},
		Speech:  SpeechConfig{Voice: "en+f3", WordsPerMinute: 150},
		Video:   VideoConfig{MinSlideSeconds: 3, DefaultProfile: "balanced"},
		Jobs:    JobsConfig{MaxConcurrent: 2, ListLimit: 50, DefaultDuration: 90},
		Server:  ServerConfig{Bind: ":8080"},
		Inbox:   InboxConfig{Owner: "inbox"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides and validates
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadOptional behaves like Load when path exists and otherwise starts from
// the defaults, still applying environment overrides.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("NOTEFLIX_DATA_ROOT")); v != "" {
		c.Paths.DataRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("OLLAMA_BASE")); v != "" {
		c.LLM.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("OLLAMA_MODEL")); v != "" {
		c.LLM.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEYS")); v != "" {
		c.LLM.APIKeys = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")); v != "" {
		c.Storage.S3.AccessKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")); v != "" {
		c.Storage.S3.SecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_REGION")); v != "" && c.Storage.S3.Region == "" {
		c.Storage.S3.Region = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Paths.DataRoot == "" {
		return fmt.Errorf("paths.data_root is required")
	}
	if c.Jobs.MaxConcurrent < 0 {
		return fmt.Errorf("jobs.max_concurrent must be >= 0")
	}

	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required for ollama")
		}
	case "gemini":
		if len(c.LLM.APIKeys) == 0 {
			return fmt.Errorf("llm.api_keys is required for gemini")
		}
	default:
		return fmt.Errorf("llm.provider must be ollama or gemini, got %q", c.LLM.Provider)
	}

	switch c.Video.DefaultProfile {
	case "", "balanced", "heavy", "insane":
	default:
		return fmt.Errorf("video.default_profile %q is not a known encode profile", c.Video.DefaultProfile)
	}

	if c.Paths.Assets == "" {
		c.Paths.Assets = filepath.Join(c.Paths.DataRoot, "assets")
	}
	if c.Paths.Work == "" {
		c.Paths.Work = filepath.Join(c.Paths.DataRoot, "tmp")
	}
	if c.Paths.Output == "" {
		c.Paths.Output = filepath.Join(c.Paths.DataRoot, "outputs")
	}
	if c.Video.DefaultProfile == "" {
		c.Video.DefaultProfile = "balanced"
	}
	if c.Video.MinSlideSeconds <= 0 {
		c.Video.MinSlideSeconds = 3
	}
	if c.Jobs.ListLimit <= 0 {
		c.Jobs.ListLimit = 50
	}
	if c.Jobs.DefaultDuration <= 0 {
		c.Jobs.DefaultDuration = 90
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == "gemini" {
			c.LLM.Model = "gemini-2.5-flash"
		} else {
			c.LLM.Model = "llama3"
		}
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "en+f3"
	}
	if c.Speech.WordsPerMinute <= 0 {
		c.Speech.WordsPerMinute = 150
	}
	if c.Inbox.Owner == "" {
		c.Inbox.Owner = "inbox"
	}
	if c.Storage.S3.Bucket != "" && c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "us-east-1"
	}

	return nil
}

// EnsureDirectories creates the data directories if they don't exist
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataRoot,
		c.Paths.Assets,
		c.Paths.Work,
		c.Paths.Output,
	}
	if c.Inbox.Dir != "" {
		dirs = append(dirs, c.Inbox.Dir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is where the sqlite job store lives
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataRoot, "sqlite", "noteflix.db")
}

// LockPath guards the data root against a second server process
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataRoot, "noteflix.lock")
}
