package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/taleinat/htmldammit/internal/dammit"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Inputs      []string `yaml:"inputs" json:"inputs"`
	Output      string   `yaml:"output" json:"output"`
	Mode        string   `yaml:"mode" json:"mode"`
	SmartQuotes string   `yaml:"smartQuotes" json:"smartQuotes"`
	ContentType string   `yaml:"contentType" json:"contentType"`
	Verbose     bool     `yaml:"verbose" json:"verbose"`

	Fetch struct {
		UA             string        `yaml:"ua" json:"ua"`
		Timeout        time.Duration `yaml:"timeout" json:"timeout"`
		Attempts       int           `yaml:"attempts" json:"attempts"`
		Concurrency    int           `yaml:"concurrency" json:"concurrency"`
		MaxRedirects   int           `yaml:"maxRedirects" json:"maxRedirects"`
		MaxBodyBytes   int64         `yaml:"maxBodyBytes" json:"maxBodyBytes"`
		AnyContentType bool          `yaml:"anyContentType" json:"anyContentType"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
	} `yaml:"cache" json:"cache"`

	Log struct {
		File       string `yaml:"file" json:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMB" json:"maxSizeMB"`
		MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
	} `yaml:"log" json:"log"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that still hold
// their zero or default value, so explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if len(cfg.Inputs) == 0 && len(fc.Inputs) > 0 {
		cfg.Inputs = append([]string{}, fc.Inputs...)
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if (cfg.Mode == "" || cfg.Mode == DefaultMode) && fc.Mode != "" {
		cfg.Mode = fc.Mode
	}
	if (cfg.SmartQuotes == "" || cfg.SmartQuotes == DefaultSmartQuotes) && fc.SmartQuotes != "" {
		cfg.SmartQuotes = fc.SmartQuotes
	}
	if cfg.ContentType == "" && fc.ContentType != "" {
		cfg.ContentType = fc.ContentType
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Fetch.UA != "" {
		cfg.UserAgent = fc.Fetch.UA
	}
	if (cfg.Timeout == 0 || cfg.Timeout == DefaultTimeout) && fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if (cfg.MaxAttempts == 0 || cfg.MaxAttempts == DefaultAttempts) && fc.Fetch.Attempts > 0 {
		cfg.MaxAttempts = fc.Fetch.Attempts
	}
	if (cfg.Concurrency == 0 || cfg.Concurrency == DefaultConcurrency) && fc.Fetch.Concurrency > 0 {
		cfg.Concurrency = fc.Fetch.Concurrency
	}
	if (cfg.MaxRedirects == 0 || cfg.MaxRedirects == DefaultRedirects) && fc.Fetch.MaxRedirects > 0 {
		cfg.MaxRedirects = fc.Fetch.MaxRedirects
	}
	if cfg.MaxBodyBytes == 0 && fc.Fetch.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.Fetch.MaxBodyBytes
	}
	if !cfg.AnyContentType && fc.Fetch.AnyContentType {
		cfg.AnyContentType = true
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}

	if cfg.LogFile == "" && fc.Log.File != "" {
		cfg.LogFile = fc.Log.File
	}
	if (cfg.LogMaxSizeMB == 0 || cfg.LogMaxSizeMB == DefaultLogMaxSize) && fc.Log.MaxSizeMB > 0 {
		cfg.LogMaxSizeMB = fc.Log.MaxSizeMB
	}
	if cfg.LogMaxBackups == 0 && fc.Log.MaxBackups > 0 {
		cfg.LogMaxBackups = fc.Log.MaxBackups
	}
}

// ErrNoInputs is returned by ValidateConfig when there is nothing to decode.
var ErrNoInputs = errors.New("config: at least one URL or file is required")

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return ErrNoInputs
	}
	for _, in := range cfg.Inputs {
		if strings.TrimSpace(in) == "" {
			return errors.New("config: empty input")
		}
	}
	switch cfg.Mode {
	case "", ModeHTML, ModeText:
	default:
		return fmt.Errorf("config: unknown mode %q (want html or text)", cfg.Mode)
	}
	if _, err := dammit.ParseSmartQuotes(cfg.SmartQuotes); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.MaxAttempts < 0 || cfg.Timeout < 0 || cfg.MaxBodyBytes < 0 || cfg.Concurrency < 0 || cfg.MaxRedirects < 0 {
		return errors.New("config: negative fetch limits are not allowed")
	}
	if cfg.CacheMaxAge < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxEntries < 0 {
		return errors.New("config: negative cache limits are not allowed")
	}
	if cfg.LogMaxSizeMB < 0 || cfg.LogMaxBackups < 0 {
		return errors.New("config: negative log limits are not allowed")
	}
	return nil
}
