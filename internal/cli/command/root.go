package command

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/postvote-go/internal/cli/config"
	"github.com/yndnr/postvote-go/internal/cli/connection"
	"github.com/yndnr/postvote-go/internal/cli/output"
	"github.com/yndnr/postvote-go/internal/infra/buildinfo"
	"github.com/yndnr/postvote-go/internal/infra/tlsroots"
)

const metaConfig = "cliConfig"

// errNoSession is returned by commands that need a session when none is
// configured.
var errNoSession = errors.New("no session: pass --user-id and --token, or run 'session login --save'")

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "postvote-cli",
		Usage:    "command-line client for postvote-server",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			UserCommand(),
			SessionCommand(),
			PostCommand(),
			SystemCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			c.App.Metadata[metaConfig] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI settings file (default ~/.postvote/cli.yaml)",
			EnvVars: []string{"POSTVOTE_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "postvote-server address",
			EnvVars: []string{"POSTVOTE_SERVER"},
			Value:   config.DefaultServer,
		},
		&cli.StringFlag{
			Name:    "user-id",
			Aliases: []string{"u"},
			Usage:   "user ID of the session",
			EnvVars: []string{"POSTVOTE_USER_ID"},
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "session token",
			EnvVars: []string{"POSTVOTE_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM bundle trusted for https servers",
			EnvVars: []string{"POSTVOTE_CA_FILE"},
		},
		&cli.BoolFlag{
			Name:    "insecure",
			Aliases: []string{"k"},
			Usage:   "skip TLS certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: connection.DefaultTimeout,
		},
	}
}

// GlobalFlags are the global flags merged with the settings file.
type GlobalFlags struct {
	ConfigPath string
	Server     string
	UserID     string
	Token      string
	Output     output.Format
	CAFile     string
	Insecure   bool
	Timeout    time.Duration
}

// ParseGlobalFlags resolves the global flags. Flags and environment
// variables win over the settings file, which wins over flag defaults.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := loadedConfig(c)

	pick := func(name, saved string) string {
		if c.IsSet(name) || saved == "" {
			return c.String(name)
		}
		return saved
	}

	format, err := output.ParseFormat(pick("output", cfg.Output))
	if err != nil {
		return nil, err
	}

	flags := &GlobalFlags{
		ConfigPath: c.String("config"),
		Server:     pick("server", cfg.Server),
		Output:     format,
		CAFile:     pick("ca-file", cfg.CAFile),
		Insecure:   c.Bool("insecure") || cfg.Insecure,
		Timeout:    c.Duration("timeout"),
	}

	// The saved session is used only when neither half is given.
	if c.IsSet("user-id") || c.IsSet("token") {
		flags.UserID = c.String("user-id")
		flags.Token = c.String("token")
	} else {
		flags.UserID = cfg.UserID
		flags.Token = cfg.Token
	}
	return flags, nil
}

// loadedConfig returns the settings loaded by App.Before.
func loadedConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// newClient builds an HTTP client from the global flags.
func newClient(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}

	opts := connection.Options{
		UserID:  flags.UserID,
		Token:   flags.Token,
		Timeout: flags.Timeout,
	}
	if flags.CAFile != "" || flags.Insecure {
		opts.TLS, err = tlsroots.ClientConfig(tlsroots.ClientOptions{
			CAFile:             flags.CAFile,
			InsecureSkipVerify: flags.Insecure,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("tls: %w", err)
		}
	}

	return connection.NewHTTPClient(flags.Server, opts), flags, nil
}

// printResult writes data to the app's Writer in the chosen format.
func printResult(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output).Format(c.App.Writer, data)
}

// saveSession stores a session in the settings file.
func saveSession(c *cli.Context, flags *GlobalFlags, s *sessionView) error {
	cfg := loadedConfig(c)
	cfg.Server = flags.Server
	cfg.UserID = s.UserID
	cfg.Token = s.Token

	path := flags.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "session saved to %s\n", path)
	return nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
