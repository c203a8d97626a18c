// Package config loads tabq configuration from file, environment, and flags,
// and carries the logger and loaded config through command contexts.
package config

// Config holds all CLI and server configuration options.
type Config struct {
	File          string `koanf:"file"`           // dataset to load at startup
	BindName      string `koanf:"bind_name"`      // SQL identifier the dataset is exposed as
	FilterLimit   int    `koanf:"filter_limit"`   // default row cap for filter questions
	UniqueCap     int    `koanf:"unique_cap"`     // max distinct values listed per answer
	HeadRows      int    `koanf:"head_rows"`      // rows shown by the head command
	Port          int    `koanf:"port"`           // HTTP server port
	SessionSecret string `koanf:"session_secret"` // cookie signing key; random per process when empty
	Watch         bool   `koanf:"watch"`          // reload the dataset when the source file changes
	Verbose       bool   `koanf:"verbose"`
	Output        string `koanf:"output"` // auto, table, json, csv, markdown
}

// Default configuration values.
const (
	DefaultBindName    = "df"
	DefaultFilterLimit = 10
	DefaultUniqueCap   = 20
	DefaultHeadRows    = 5
	DefaultPort        = 4321
	DefaultOutput      = "auto" // TTY gets a rendered table, pipes get markdown
)
