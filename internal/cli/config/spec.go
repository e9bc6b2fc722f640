package config

// DefaultServer is the server address used when none is configured.
const DefaultServer = "http://127.0.0.1:8080"

// CLIConfig is the configuration for postvote-cli.
type CLIConfig struct {
	Server string `yaml:"server"`
	Output string `yaml:"output"` // table, json, yaml

	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile   string `yaml:"ca_file,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	// Session saved by login or register with --save.
	UserID string `yaml:"user_id,omitempty"`
	Token  string `yaml:"token,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: DefaultServer,
		Output: "table",
	}
}

// HasSession reports whether a session is saved.
func (c *CLIConfig) HasSession() bool {
	return c.UserID != "" && c.Token != ""
}

// ClearSession forgets the saved session.
func (c *CLIConfig) ClearSession() {
	c.UserID = ""
	c.Token = ""
}
