package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage/journal"
)

// JournalCommand returns the journal dump command. It reads the segment
// files directly and does not contact the server.
func JournalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Print the server operation journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "journal directory",
				Value: "./data/journal",
			},
			&cli.StringFlag{
				Name:  "identity",
				Usage: "only entries for this identity",
			},
			&cli.StringFlag{
				Name:  "op",
				Usage: "only entries for this operation (e.g. PUBLISH)",
			},
			&cli.IntFlag{
				Name:  "tail",
				Usage: "only the last N matching entries (0 for all)",
			},
		},
		Action: journalAction,
	}
}

func journalAction(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	var op domain.Op
	if name := c.String("op"); name != "" {
		var ok bool
		if op, ok = domain.ParseOp(strings.ToUpper(name)); !ok {
			return fmt.Errorf("unknown operation %q", name)
		}
	}

	r, err := journal.NewReader(c.String("dir"))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	identity := c.String("identity")
	list := make(JournalList, 0, len(entries))
	for _, e := range entries {
		if identity != "" && e.Identity != identity {
			continue
		}
		if op != domain.OpUnspecified && e.Op != op {
			continue
		}
		list = append(list, newJournalView(e))
	}
	if n := c.Int("tail"); n > 0 && len(list) > n {
		list = list[len(list)-n:]
	}

	return newPrinter(c, flags).Result(list)
}
