package repl

import (
	"sort"
	"strings"
)

// Commands lists the shell command words.
var Commands = []string{
	"REGISTER", "UNREGISTER", "CONNECT", "DISCONNECT",
	"PUBLISH", "DELETE", "LIST_USERS", "LIST_CONTENT",
	"HELP", "QUIT",
}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over Commands.
func NewCompleter() *Completer {
	cmds := append([]string(nil), Commands...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case, in
// sorted order.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
