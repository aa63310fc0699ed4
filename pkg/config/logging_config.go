package config

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Colors     bool   `yaml:"colors"`      // ANSI colors on console output
	OutputFile string `yaml:"output_file"` // Empty for stderr
}
