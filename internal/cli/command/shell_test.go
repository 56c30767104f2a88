package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dirmesh-go/internal/protocol"
)

func runShell(t *testing.T, addr, input string) string {
	t.Helper()
	history := filepath.Join(t.TempDir(), "history")
	out, err := runApp(t, input, "-s", addr, "shell", "--history", history)
	if err != nil {
		t.Fatalf("shell error = %v", err)
	}
	return out
}

func TestShell_Session(t *testing.T) {
	addr := startServer(t, protocol.Normalized)
	input := strings.Join([]string{
		"REGISTER alice",
		"register bob",
		"CONNECT alice",
		"PUBLISH report q1 notes",
		"PUBLISH report again",
		"LIST_CONTENT alice",
		"DELETE report",
		"DELETE report",
		"LIST_USERS",
		"DISCONNECT alice",
		"LIST_USERS",
		"QUIT",
		"REGISTER never",
	}, "\n") + "\n"

	out := runShell(t, addr, input)

	for _, want := range []string{
		"REGISTER OK\n",
		"CONNECT OK\n",
		"PUBLISH OK\n",
		"PUBLISH FAIL, CONTENT ALREADY PUBLISHED\n",
		"LIST_CONTENT OK\n",
		"q1 notes",
		"DELETE OK\n",
		"DELETE FAIL, CONTENT NOT PUBLISHED\n",
		"LIST_USERS OK\n",
		"DISCONNECT OK\n",
		"LIST_USERS FAIL, USER NOT CONNECTED\n",
		"+++ FINISHED +++\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 2, strings.Count(out, "REGISTER OK\n"))
	assert.NotContains(t, out, "never")
}

func TestShell_SyntaxAndUnknownCommands(t *testing.T) {
	addr := startServer(t, protocol.Normalized)
	input := "REGISTER\nPUBLISH onlyname\nLIST_USERS extra\nQUIT now\nGET_FILE a b c\nLIST\nHELP\nQUIT\n"

	out := runShell(t, addr, input)

	assert.Contains(t, out, "Syntax error. Usage: REGISTER <userName>\n")
	assert.Contains(t, out, "Syntax error. Usage: PUBLISH <fileName> <description>\n")
	assert.Contains(t, out, "Syntax error. Usage: LIST_USERS\n")
	assert.Contains(t, out, "Syntax error. Usage: QUIT\n")
	assert.Contains(t, out, "Error: command GET_FILE not valid.\n")
	assert.Contains(t, out, "Error: command LIST not valid.\nDid you mean: LIST_CONTENT, LIST_USERS?\n")
	assert.Contains(t, out, "  CONNECT <userName>\n")
	assert.Contains(t, out, "+++ FINISHED +++\n")
}

func TestShell_RequiresConnectedUser(t *testing.T) {
	addr := startServer(t, protocol.Normalized)

	out := runShell(t, addr, "PUBLISH f d\nLIST_USERS\nQUIT\n")

	assert.Contains(t, out, "PUBLISH FAIL, USER NOT CONNECTED\n")
	assert.Contains(t, out, "LIST_USERS FAIL, USER NOT CONNECTED\n")
}

func TestShell_ForgetsUserOnUnregister(t *testing.T) {
	addr := startServer(t, protocol.Normalized)
	r, err := newTestRunner(addr)
	require.NoError(t, err)
	sh := &shell{runner: r, out: r.printer.Writer(), port: "9000"}
	ctx := context.Background()

	require.NoError(t, sh.Execute(ctx, []string{"REGISTER", "dave"}))
	require.NoError(t, sh.Execute(ctx, []string{"CONNECT", "dave"}))
	assert.Equal(t, "dave", sh.user)

	require.NoError(t, sh.Execute(ctx, []string{"DISCONNECT", "someone-else"}))
	assert.Equal(t, "dave", sh.user)

	require.NoError(t, sh.Execute(ctx, []string{"UNREGISTER", "dave"}))
	assert.Empty(t, sh.user)
}

func TestShell_TransportErrorSurfaces(t *testing.T) {
	r, err := newTestRunner("127.0.0.1:1")
	require.NoError(t, err)
	sh := &shell{runner: r, out: r.printer.Writer(), port: "9000"}

	err = sh.Execute(context.Background(), []string{"REGISTER", "erin"})
	require.Error(t, err)
}
