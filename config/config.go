package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/teatak/ikseg/logging"
)

const (
	DefaultFileName           = "ikseg.yaml"
	DefaultBufferSize         = 4096
	DefaultRemotePollInterval = 60 * time.Second
	DefaultLocalCheckInterval = 30 * time.Second
)

// Source describes one local dictionary file or directory.
// In YAML it is either a plain path or a mapping with path and critical.
type Source struct {
	Path     string `yaml:"path"`
	Critical bool   `yaml:"critical"`
}

// UnmarshalYAML accepts both "main.dic" and {path: main.dic, critical: true}.
func (s *Source) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Path = strings.TrimSpace(node.Value)
		s.Critical = false
		return nil
	}
	type plain Source
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	p.Path = strings.TrimSpace(p.Path)
	*s = Source(p)
	return nil
}

func (s Source) String() string {
	if s.Critical {
		return s.Path + " (critical)"
	}
	return s.Path
}

// Config is the segmentation and dictionary configuration.
type Config struct {
	UseSmart            bool `yaml:"use_smart"`
	EnableLowercase     bool `yaml:"enable_lowercase"`
	EnableRemoteDict    bool `yaml:"enable_remote_dict"`
	EnableAutoCheckDict bool `yaml:"enable_auto_check_dict"`
	WatchExtFolder      bool `yaml:"watch_ext_folder"`
	BufferSize          int  `yaml:"buffer_size"`

	// DictDir is the directory relative dictionary paths are resolved against.
	// When empty it is the directory of the configuration file.
	DictDir        string `yaml:"dict_dir"`
	MainDict       Source `yaml:"main_dict"`
	QuantifierDict Source `yaml:"quantifier_dict"`
	StopwordDict   Source `yaml:"stopword_dict"`

	ExtDict            []Source `yaml:"ext_dict"`
	ExtStopwords       []Source `yaml:"ext_stopwords"`
	ExtDictFolder      string   `yaml:"ext_dict_folder"`
	RemoteExtDict      []string `yaml:"remote_ext_dict"`
	RemoteExtStopwords []string `yaml:"remote_ext_stopwords"`

	RemotePollInterval time.Duration `yaml:"remote_poll_interval"`
	LocalCheckInterval time.Duration `yaml:"local_check_interval"`

	Logging logging.Config `yaml:"logging"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		EnableLowercase:     true,
		EnableRemoteDict:    true,
		EnableAutoCheckDict: true,
		BufferSize:          DefaultBufferSize,
		MainDict:            Source{Path: "main.dic"},
		QuantifierDict:      Source{Path: "quantifier.dic"},
		StopwordDict:        Source{Path: "stopword.dic"},
		ExtDictFolder:       "ext-dict",
		RemotePollInterval:  DefaultRemotePollInterval,
		LocalCheckInterval:  DefaultLocalCheckInterval,
		Logging:             logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at path on top of Default.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	cfg.Path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document does not set.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate normalizes zero values and rejects impossible settings.
func (c *Config) Validate() error {
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.BufferSize < 2 {
		return fmt.Errorf("buffer_size must be at least 2, got %d", c.BufferSize)
	}
	if c.RemotePollInterval <= 0 {
		c.RemotePollInterval = DefaultRemotePollInterval
	}
	if c.LocalCheckInterval <= 0 {
		c.LocalCheckInterval = DefaultLocalCheckInterval
	}
	return nil
}

// Root returns the directory dictionary paths are resolved against.
func (c *Config) Root() string {
	if c.DictDir != "" {
		if filepath.IsAbs(c.DictDir) || c.Path == "" {
			return c.DictDir
		}
		return filepath.Join(filepath.Dir(c.Path), c.DictDir)
	}
	if c.Path != "" {
		return filepath.Dir(c.Path)
	}
	return "."
}

// Resolve turns a configured dictionary path into a filesystem path.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root(), p)
}

// ExtFolder returns the resolved extension-dictionary folder, or "" when unset.
func (c *Config) ExtFolder() string {
	if c.ExtDictFolder == "" {
		return ""
	}
	return c.Resolve(c.ExtDictFolder)
}

// Digest fingerprints the dictionary source lists. Two configurations with
// the same digest load the same dictionaries.
func (c *Config) Digest() uint64 {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.WriteString("\x00")
		}
	}
	sources := func(name string, list []Source) {
		write(name, strconv.Itoa(len(list)))
		for _, s := range list {
			write(s.Path, strconv.FormatBool(s.Critical))
		}
	}
	sources("core", []Source{c.MainDict, c.QuantifierDict, c.StopwordDict})
	sources("ext_dict", c.ExtDict)
	sources("ext_stopwords", c.ExtStopwords)
	write("remote_ext_dict", strconv.Itoa(len(c.RemoteExtDict)))
	write(c.RemoteExtDict...)
	write("remote_ext_stopwords", strconv.Itoa(len(c.RemoteExtStopwords)))
	write(c.RemoteExtStopwords...)
	write(c.Root())
	return d.Sum64()
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.ExtDict = append([]Source(nil), c.ExtDict...)
	out.ExtStopwords = append([]Source(nil), c.ExtStopwords...)
	out.RemoteExtDict = append([]string(nil), c.RemoteExtDict...)
	out.RemoteExtStopwords = append([]string(nil), c.RemoteExtStopwords...)
	return &out
}
