package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SettingsFileNames are probed in order by FindAndLoad.
var SettingsFileNames = []string{"luma.yaml", "luma.yml", "luma.toml"}

// Settings is the runtime configuration of the toolchain.
type Settings struct {
	VM       VMSettings       `yaml:"vm" toml:"vm"`
	Analyzer AnalyzerSettings `yaml:"analyzer" toml:"analyzer"`
	Server   ServerSettings   `yaml:"server" toml:"server"`
	Log      LogSettings      `yaml:"log" toml:"log"`

	// Path is the file the settings were loaded from (empty for defaults).
	Path string `yaml:"-" toml:"-"`
}

type VMSettings struct {
	HotThreshold int  `yaml:"hot_threshold" toml:"hot_threshold"`
	Trace        bool `yaml:"trace" toml:"trace"`
}

type AnalyzerSettings struct {
	HotThreshold int    `yaml:"hot_threshold" toml:"hot_threshold"`
	JITThreshold int    `yaml:"jit_threshold" toml:"jit_threshold"`
	ProfileDB    string `yaml:"profile_db" toml:"profile_db"`
}

type ServerSettings struct {
	Addr       string `yaml:"addr" toml:"addr"`
	GRPCAddr   string `yaml:"grpc_addr" toml:"grpc_addr"`
	Timeout    string `yaml:"timeout" toml:"timeout"`
	SessionTTL string `yaml:"session_ttl" toml:"session_ttl"`
}

type LogSettings struct {
	Verbosity int    `yaml:"verbosity" toml:"verbosity"`
	File      string `yaml:"file" toml:"file"`
}

// Default returns the built-in settings.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.VM.HotThreshold <= 0 {
		s.VM.HotThreshold = HotLoopDefault
	}
	if s.Analyzer.HotThreshold <= 0 {
		s.Analyzer.HotThreshold = HotLoopDefault
	}
	if s.Analyzer.JITThreshold <= 0 {
		s.Analyzer.JITThreshold = JITThreshold
	}
	if s.Server.Addr == "" {
		s.Server.Addr = ":8080"
	}
	if s.Server.Timeout == "" {
		s.Server.Timeout = "30s"
	}
	if s.Server.SessionTTL == "" {
		s.Server.SessionTTL = "10m"
	}
}

// Load reads settings from path. The format is chosen by extension.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	case ".toml":
		err = toml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unsupported settings format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.applyDefaults()
	s.Path = path
	return &s, nil
}

// FindAndLoad walks up from startDir looking for a settings file.
// Returns the defaults if none is found.
func FindAndLoad(startDir string) (*Settings, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		for _, name := range SettingsFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (s *Settings) validate() error {
	for _, d := range []struct{ name, value string }{
		{"server.timeout", s.Server.Timeout},
		{"server.session_ttl", s.Server.SessionTTL},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	if s.Log.Verbosity < 0 {
		return fmt.Errorf("invalid log.verbosity: %d", s.Log.Verbosity)
	}
	return nil
}

// ExecTimeout is the per-request execution limit of the server.
func (s *ServerSettings) ExecTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// IdleTTL is how long an unused server session is kept.
func (s *ServerSettings) IdleTTL() time.Duration {
	d, err := time.ParseDuration(s.SessionTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
