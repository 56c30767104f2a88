package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dirmesh-go/internal/cli/repl"
	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/protocol"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (default ~/.dirmesh/history)",
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	r, err := newRunner(c)
	if err != nil {
		return err
	}
	history := repl.NewHistory()
	if path := c.String("history"); path != "" {
		history = repl.NewFileHistory(path, 0)
	}

	sh := &shell{runner: r, out: c.App.Writer, port: settings(c).DefaultPort}
	loop := repl.New(sh, repl.WithIO(c.App.Reader, c.App.Writer), repl.WithHistory(history))
	sh.completer = loop.Completer()

	err = loop.Run(c.Context)
	fmt.Fprintln(c.App.Writer, "+++ FINISHED +++")
	return err
}

// shell executes shell lines. CONNECT remembers the identity used by the
// commands that act on behalf of the current user.
type shell struct {
	runner    *runner
	completer *repl.Completer
	out       io.Writer
	port      string
	user      string
}

type shellCommand struct {
	usage string
	// args is the exact argument count, or the minimum when variadic.
	args     int
	variadic bool
	// needsUser marks commands sent on behalf of the connected user.
	needsUser bool
	op        domain.Op
	build     func(s *shell, args []string) protocol.Request
}

var shellCommands = map[string]shellCommand{
	"REGISTER": {
		usage: "REGISTER <userName>", args: 1, op: domain.OpRegister,
		build: func(_ *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpRegister, Identity: a[0]}
		},
	},
	"UNREGISTER": {
		usage: "UNREGISTER <userName>", args: 1, op: domain.OpUnregister,
		build: func(_ *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpUnregister, Identity: a[0]}
		},
	},
	"CONNECT": {
		usage: "CONNECT <userName>", args: 1, op: domain.OpConnect,
		build: func(s *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpConnect, Identity: a[0], Port: s.port}
		},
	},
	"DISCONNECT": {
		usage: "DISCONNECT <userName>", args: 1, op: domain.OpDisconnect,
		build: func(_ *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpDisconnect, Identity: a[0]}
		},
	},
	"PUBLISH": {
		usage: "PUBLISH <fileName> <description>", args: 2, variadic: true, needsUser: true, op: domain.OpPublish,
		build: func(s *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpPublish, Identity: s.user, Name: a[0], Description: strings.Join(a[1:], " ")}
		},
	},
	"DELETE": {
		usage: "DELETE <fileName>", args: 1, needsUser: true, op: domain.OpDelete,
		build: func(s *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpDelete, Identity: s.user, Name: a[0]}
		},
	},
	"LIST_USERS": {
		usage: "LIST_USERS", needsUser: true, op: domain.OpListUsers,
		build: func(s *shell, _ []string) protocol.Request {
			return protocol.Request{Op: domain.OpListUsers, Identity: s.user}
		},
	},
	"LIST_CONTENT": {
		usage: "LIST_CONTENT <userName>", args: 1, needsUser: true, op: domain.OpListContent,
		build: func(s *shell, a []string) protocol.Request {
			return protocol.Request{Op: domain.OpListContent, Identity: s.user, Target: a[0]}
		},
	},
}

// Execute implements repl.Executor.
func (s *shell) Execute(ctx context.Context, words []string) error {
	name := strings.ToUpper(words[0])
	args := words[1:]

	switch name {
	case "QUIT":
		if len(args) != 0 {
			fmt.Fprintln(s.out, "Syntax error. Usage: QUIT")
			return nil
		}
		return repl.ErrQuit
	case "HELP":
		for _, cmd := range s.completer.Complete("") {
			if sc, ok := shellCommands[cmd]; ok {
				fmt.Fprintf(s.out, "  %s\n", sc.usage)
			}
		}
		fmt.Fprintln(s.out, "  QUIT")
		return nil
	}

	sc, ok := shellCommands[name]
	if !ok {
		fmt.Fprintf(s.out, "Error: command %s not valid.\n", words[0])
		if hints := s.completer.Complete(name); len(hints) > 0 {
			fmt.Fprintf(s.out, "Did you mean: %s?\n", strings.Join(hints, ", "))
		}
		return nil
	}
	if len(args) < sc.args || (!sc.variadic && len(args) != sc.args) {
		fmt.Fprintf(s.out, "Syntax error. Usage: %s\n", sc.usage)
		return nil
	}
	if sc.needsUser && s.user == "" {
		s.runner.printer.Failure(sc.op.String() + " FAIL, USER NOT CONNECTED")
		return nil
	}

	req := sc.build(s, args)
	_, err := s.runner.run(ctx, req)
	if err != nil {
		if errors.Is(err, ErrFailed) {
			return nil
		}
		return err
	}
	s.track(req)
	return nil
}

// track updates the connected user after a successful request.
func (s *shell) track(req protocol.Request) {
	switch req.Op {
	case domain.OpConnect:
		s.user = req.Identity
	case domain.OpDisconnect, domain.OpUnregister:
		if req.Identity == s.user {
			s.user = ""
		}
	}
}
