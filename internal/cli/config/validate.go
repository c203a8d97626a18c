package config

import (
	"fmt"
	"regexp"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// outputFormats lists the accepted values for the output option.
var outputFormats = map[string]bool{
	"auto":     true,
	"table":    true,
	"json":     true,
	"csv":      true,
	"markdown": true,
}

// Validate checks if the configuration is valid. Dataset existence is not
// checked here so commands that take no dataset still work.
func (c *Config) Validate() error {
	if c.BindName != "" && !identRe.MatchString(c.BindName) {
		return fmt.Errorf("bind_name %q is not a valid SQL identifier", c.BindName)
	}
	if c.FilterLimit < 1 {
		return fmt.Errorf("filter_limit must be at least 1, got %d", c.FilterLimit)
	}
	if c.UniqueCap < 1 {
		return fmt.Errorf("unique_cap must be at least 1, got %d", c.UniqueCap)
	}
	if c.HeadRows < 1 {
		return fmt.Errorf("head_rows must be at least 1, got %d", c.HeadRows)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if !outputFormats[c.Output] {
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	return nil
}
