package app

import "time"

// Output modes.
const (
	ModeHTML = "html"
	ModeText = "text"
)

// Defaults shared by the CLI flags and the file/env layers, which only
// override a field still holding its default.
const (
	DefaultUserAgent   = "htmldammit/1.0 (+https://github.com/taleinat/htmldammit)"
	DefaultMode        = ModeHTML
	DefaultSmartQuotes = "auto"
	DefaultTimeout     = 15 * time.Second
	DefaultAttempts    = 2
	DefaultConcurrency = 4
	DefaultRedirects   = 5
	DefaultLogMaxSize  = 10
)

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs are URLs (http/https) or file paths.
	Inputs     []string
	OutputPath string

	// Decoding
	Mode        string
	SmartQuotes string
	// ContentType is the header used for file inputs. When empty the file
	// extension decides.
	ContentType string

	// Fetching
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	// Concurrency bounds inputs processed at once and requests in flight.
	Concurrency  int
	MaxRedirects int
	MaxBodyBytes   int64
	AnyContentType bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxEntries  int

	// Logging
	Verbose       bool
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}
