package config

import "fmt"

// OutputConfig controls where and how solutions are written.
type OutputConfig struct {
	// Dir is the directory receiving solution files.
	Dir string `json:"dir"`
	// Format selects the solution writer: "csv" or "json".
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Format == "" {
		c.Format = "csv"
	}
}

// Validate checks the format.
func (c OutputConfig) Validate() error {
	if c.Format != "csv" && c.Format != "json" {
		return fmt.Errorf("unknown output format %s", c.Format)
	}
	return nil
}
