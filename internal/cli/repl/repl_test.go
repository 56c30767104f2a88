package repl

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects executed lines and quits on QUIT.
type recorder struct {
	lines [][]string
	err   error
}

func (r *recorder) Execute(_ context.Context, words []string) error {
	if words[0] == "QUIT" {
		return ErrQuit
	}
	r.lines = append(r.lines, words)
	return r.err
}

func newTestREPL(input string, exec Executor) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(exec,
		WithIO(strings.NewReader(input), out),
		WithHistory(NewFileHistory("", 10)),
	)
	return r, out
}

func TestREPL_Run_Quit(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("REGISTER alice\nQUIT\nREGISTER bob\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assert.Equal(t, [][]string{{"REGISTER", "alice"}}, rec.lines)
	assert.Equal(t, 2, strings.Count(out.String(), DefaultPrompt))
}

func TestREPL_Run_EOF(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("LIST_USERS", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assert.Equal(t, [][]string{{"LIST_USERS"}}, rec.lines)
	assert.True(t, strings.HasSuffix(out.String(), DefaultPrompt+"\n"))
}

func TestREPL_Run_SkipsBlankLinesAndSplitsWords(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("\n   \n  PUBLISH  f   some  text \n", rec)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, [][]string{{"PUBLISH", "f", "some", "text"}}, rec.lines)
	assert.Equal(t, "PUBLISH  f   some  text", r.history.Get(0))
}

func TestREPL_Run_ExecutorError(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	r, out := newTestREPL("LIST_USERS\nQUIT\n", rec)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "Exception: boom\n")
}

func TestREPL_Run_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := ExecutorFunc(func(context.Context, []string) error {
		cancel()
		return nil
	})
	r, _ := newTestREPL("LIST_USERS\nLIST_USERS\n", exec)

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 1, r.history.Len())
}

func TestREPL_Run_SavesHistory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	out := &bytes.Buffer{}
	r := New(&recorder{},
		WithIO(strings.NewReader("CONNECT alice\nQUIT\n"), out),
		WithHistory(NewFileHistory(file, 10)),
		WithPrompt("> "),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.True(t, strings.HasPrefix(out.String(), "> "))

	h := NewFileHistory(file, 10)
	require.NoError(t, h.Load())
	assert.Equal(t, "QUIT", h.Get(0))
	assert.Equal(t, "CONNECT alice", h.Get(1))
}

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter()

	tests := []struct {
		prefix string
		want   []string
	}{
		{"LIST", []string{"LIST_CONTENT", "LIST_USERS"}},
		{"list_u", []string{"LIST_USERS"}},
		{"dis", []string{"DISCONNECT"}},
		{"GET_FILE", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Complete(tt.prefix), "Complete(%q)", tt.prefix)
	}
	assert.Len(t, c.Complete(""), len(Commands))
}
