package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dirmesh-go/internal/cli/config"
	"github.com/yndnr/dirmesh-go/internal/cli/connection"
	"github.com/yndnr/dirmesh-go/internal/cli/output"
	"github.com/yndnr/dirmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/dirmesh-go/internal/protocol"
)

// ErrFailed is returned when the server answered with a failure status. The
// outcome line has already been printed.
var ErrFailed = errors.New("operation failed")

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "dirmesh-cli",
		Usage:   "Client for the dirmesh directory service",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RegisterCommand(),
			UnregisterCommand(),
			ConnectCommand(),
			DisconnectCommand(),
			PublishCommand(),
			DeleteCommand(),
			ListUsersCommand(),
			ListContentCommand(),
			ShellCommand(),
			JournalCommand(),
			VersionCommand(),
		},
		Before: loadSettings,
	}
}

// globalFlags returns the global CLI flags. Unset flags fall back to the
// CLI config file.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "directory server address (default localhost:8888)",
			EnvVars: []string{"DIRMESH_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format for listings: table, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout (default 10s)",
		},
		&cli.StringFlag{
			Name:    "status-codes",
			Usage:   "status code table the server uses: normalized, legacy",
			EnvVars: []string{"DIRMESH_STATUS_CODES"},
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.dirmesh/cli.yaml)",
			EnvVars: []string{"DIRMESH_CLI_CONFIG"},
		},
	}
}

func loadSettings(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata[settingsKey] = cfg
	return nil
}

// settings returns the loaded CLI config, or the defaults.
func settings(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[settingsKey].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// GlobalFlags holds the resolved global options.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Timeout time.Duration
	Codes   protocol.Codes
	NoColor bool
}

// ParseGlobalFlags resolves the global flags against the CLI config.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := settings(c)

	server := c.String("server")
	if server == "" {
		server = cfg.DefaultServer
	}

	outName := c.String("output")
	if outName == "" {
		outName = cfg.DefaultOutput
	}
	format, err := output.ParseFormat(outName)
	if err != nil {
		return nil, err
	}

	codeName := c.String("status-codes")
	if codeName == "" {
		codeName = cfg.StatusCodes
	}
	codes, err := protocol.ParseCodes(codeName)
	if err != nil {
		return nil, err
	}

	timeout := c.Duration("timeout")
	if !c.IsSet("timeout") {
		timeout = connection.DefaultTimeout
		if cfg.Timeout != "" {
			if timeout, err = time.ParseDuration(cfg.Timeout); err != nil {
				return nil, fmt.Errorf("config timeout: %w", err)
			}
		}
	}

	return &GlobalFlags{
		Server:  server,
		Output:  format,
		Timeout: timeout,
		Codes:   codes,
		NoColor: c.Bool("no-color") || cfg.NoColor,
	}, nil
}

// newPrinter creates a printer on the app writer.
func newPrinter(c *cli.Context, flags *GlobalFlags) *output.Printer {
	return output.NewPrinter(c.App.Writer, flags.Output, flags.NoColor)
}

// newRunner creates a runner from the global flags.
func newRunner(c *cli.Context) (*runner, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}
	client := connection.NewClient(flags.Server,
		connection.WithTimeout(flags.Timeout),
		connection.WithCodes(flags.Codes),
	)
	return &runner{
		client:     client,
		printer:    newPrinter(c, flags),
		structured: flags.Output != output.FormatTable,
	}, nil
}
