package config

// CLIConfig is the configuration for dirmesh-cli.
type CLIConfig struct {
	DefaultServer string `yaml:"default_server"`
	DefaultOutput string `yaml:"default_output"` // table, json, yaml
	// DefaultPort is advertised by connect when --port is not given.
	DefaultPort string `yaml:"default_port"`
	StatusCodes string `yaml:"status_codes"` // normalized, legacy
	Timeout     string `yaml:"timeout"`
	NoColor     bool   `yaml:"no_color"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "localhost:8888",
		DefaultOutput: "table",
		DefaultPort:   "9000",
		StatusCodes:   "normalized",
		Timeout:       "10s",
	}
}
