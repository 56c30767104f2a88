package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/protocol"
)

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "identity issuing the request",
		EnvVars:  []string{"DIRMESH_USER"},
		Required: true,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Register an identity",
		ArgsUsage: "USER",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return send(c, protocol.Request{Op: domain.OpRegister, Identity: c.Args().First()})
		},
	}
}

// UnregisterCommand returns the unregister command.
func UnregisterCommand() *cli.Command {
	return &cli.Command{
		Name:      "unregister",
		Usage:     "Remove an identity, closing its session",
		ArgsUsage: "USER",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return send(c, protocol.Request{Op: domain.OpUnregister, Identity: c.Args().First()})
		},
	}
}

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Open a session for an identity",
		ArgsUsage: "USER",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to advertise (default from the CLI config)",
			},
		},
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			port := c.String("port")
			if port == "" {
				port = settings(c).DefaultPort
			}
			return send(c, protocol.Request{Op: domain.OpConnect, Identity: c.Args().First(), Port: port})
		},
	}
}

// DisconnectCommand returns the disconnect command.
func DisconnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "disconnect",
		Usage:     "Close the session of an identity and drop its catalog",
		ArgsUsage: "USER",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return send(c, protocol.Request{Op: domain.OpDisconnect, Identity: c.Args().First()})
		},
	}
}

// PublishCommand returns the publish command.
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a catalog entry",
		ArgsUsage: "NAME DESCRIPTION...",
		Flags:     []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return usageError(c)
			}
			args := c.Args().Slice()
			return send(c, protocol.Request{
				Op:          domain.OpPublish,
				Identity:    c.String("user"),
				Name:        args[0],
				Description: strings.Join(args[1:], " "),
			})
		},
	}
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Withdraw a catalog entry",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return send(c, protocol.Request{Op: domain.OpDelete, Identity: c.String("user"), Name: c.Args().First()})
		},
	}
}

// ListUsersCommand returns the list-users command.
func ListUsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-users",
		Usage: "List connected identities",
		Flags: []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 0); err != nil {
				return err
			}
			return send(c, protocol.Request{Op: domain.OpListUsers, Identity: c.String("user")})
		},
	}
}

// ListContentCommand returns the list-content command.
func ListContentCommand() *cli.Command {
	return &cli.Command{
		Name:      "list-content",
		Usage:     "List the catalog of a connected identity",
		ArgsUsage: "TARGET",
		Flags:     []cli.Flag{userFlag()},
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return send(c, protocol.Request{Op: domain.OpListContent, Identity: c.String("user"), Target: c.Args().First()})
		},
	}
}

func send(c *cli.Context, req protocol.Request) error {
	r, err := newRunner(c)
	if err != nil {
		return err
	}
	_, err = r.run(c.Context, req)
	return err
}

func exactArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return usageError(c)
	}
	return nil
}

func usageError(c *cli.Context) error {
	if c.Command.ArgsUsage == "" {
		return fmt.Errorf("usage: %s", c.Command.Name)
	}
	return fmt.Errorf("usage: %s %s", c.Command.Name, c.Command.ArgsUsage)
}
