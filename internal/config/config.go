package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPrompt      = ":"
	DefaultHistorySize = 1000
	DefaultExitSignal  = "TERM"
	HistoryFileName    = ".smallsh_history"
)

// exitSignals maps the accepted exit_signal names to signals.
var exitSignals = map[string]syscall.Signal{
	"HUP":  syscall.SIGHUP,
	"INT":  syscall.SIGINT,
	"KILL": syscall.SIGKILL,
	"TERM": syscall.SIGTERM,
}

type Config struct {
	fs afero.Fs

	// Prompt is written before every line is read.
	Prompt string `yaml:"prompt" validate:"required"`
	// HistoryFile stores entered lines between sessions, empty keeps them in
	// memory only.
	HistoryFile string `yaml:"history_file"`
	HistorySize int    `yaml:"history_size" validate:"gte=0"`
	// HomeDir overrides $HOME as the target of a bare cd.
	HomeDir string `yaml:"home_dir"`
	// LogFile receives diagnostic logs, empty discards them.
	LogFile string `yaml:"log_file"`
	// ExitSignal is sent to background jobs still running on exit.
	ExitSignal string `yaml:"exit_signal" validate:"required,oneof=HUP INT KILL TERM"`
}

// New returns the default configuration backed by fs.
func New(fs afero.Fs) *Config {
	cfg := &Config{
		fs:          fs,
		Prompt:      DefaultPrompt,
		HistorySize: DefaultHistorySize,
		ExitSignal:  DefaultExitSignal,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = filepath.Join(home, HistoryFileName)
	}
	return cfg
}

// Load reads a YAML configuration file on top of the defaults. An empty
// file name returns the defaults.
func Load(fs afero.Fs, file string) (*Config, error) {
	cfg := New(fs)
	if file == "" {
		return cfg, nil
	}

	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, err
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", file, err)
	}

	return cfg, nil
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})

	return validate.Struct(c)
}

// Fs is the filesystem history and log files live on.
func (c *Config) Fs() afero.Fs {
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	return c.fs
}

// Signal returns the signal named by ExitSignal.
func (c *Config) Signal() syscall.Signal {
	if sig, ok := exitSignals[c.ExitSignal]; ok {
		return sig
	}
	return syscall.SIGTERM
}

// OpenLog opens the diagnostic log in an append only state.
func (c *Config) OpenLog() (afero.File, error) {
	return c.Fs().OpenFile(c.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}
