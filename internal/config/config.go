package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/text/language"
)

// DefaultLogInterval is the progress logging interval in seconds.
const DefaultLogInterval = 5

// Errors
var (
	ErrNoProtoFile     = errors.New("must specify a protocol source file")
	ErrNoVanity        = errors.New("must specify a vanity string")
	ErrBadWorkers      = errors.New("--thread-count must be at least 1")
	ErrBadLogInterval  = errors.New("--log-interval must be at least 1 second")
	ErrBadOutputFormat = errors.New(`output format must be "human" or "csv"`)
	ErrProtoFileUnread = errors.New("unable to read file")
)

// OutputFormat selects how matches are written.
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatCSV   OutputFormat = "csv"
)

var _ pflag.Value = (*OutputFormat)(nil)

// String implements pflag.Value.
func (f *OutputFormat) String() string {
	return string(*f)
}

// Set implements pflag.Value.
func (f *OutputFormat) Set(s string) error {
	switch OutputFormat(s) {
	case FormatHuman, FormatCSV:
		*f = OutputFormat(s)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrBadOutputFormat, s)
}

// Type implements pflag.Value.
func (f *OutputFormat) Type() string {
	return "human|csv"
}

// Config holds the application configuration
type Config struct {
	ProtoFile   string
	Data        []byte // contents of ProtoFile, set by Load
	Vanity      string
	IgnoreCase  bool
	Workers     int
	Format      OutputFormat
	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds
	Locale      string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		Format:      FormatHuman,
		LogInterval: DefaultLogInterval,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ProtoFile == "" {
		return ErrNoProtoFile
	}
	if c.Vanity == "" {
		return ErrNoVanity
	}
	if c.Workers < 1 {
		return ErrBadWorkers
	}
	if c.LogInterval < 1 {
		return ErrBadLogInterval
	}
	if c.Format != FormatHuman && c.Format != FormatCSV {
		return fmt.Errorf("%w: %q", ErrBadOutputFormat, c.Format)
	}
	return nil
}

// Load reads the protocol file into Data.
func (c *Config) Load() error {
	data, err := ReadProtoFile(c.ProtoFile)
	if err != nil {
		return err
	}
	c.Data = data
	return nil
}

// ReadProtoFile reads a protocol blob. The contents are used as-is; they are
// not required to be valid text.
func ReadProtoFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrProtoFileUnread, filename, err)
	}
	return data, nil
}

// LocaleTag resolves the locale used to group numbers in human output:
// the --locale flag, then LC_ALL, LC_NUMERIC and LANG. Unparseable or
// unset values fall back to American English.
func (c *Config) LocaleTag() language.Tag {
	candidates := []string{c.Locale, os.Getenv("LC_ALL"), os.Getenv("LC_NUMERIC"), os.Getenv("LANG")}
	for _, v := range candidates {
		if tag, ok := parseLocale(v); ok {
			return tag
		}
	}
	return language.AmericanEnglish
}

// parseLocale accepts POSIX names such as "de_DE.UTF-8" or "fr_FR@euro" as
// well as BCP 47 tags.
func parseLocale(s string) (language.Tag, bool) {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" || s == "C" || s == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// GetTargetDescription returns a human-readable description of the target
func (c *Config) GetTargetDescription() string {
	if c.IgnoreCase {
		return "prefix (case-insensitive): " + c.Vanity
	}
	return "prefix: " + c.Vanity
}
