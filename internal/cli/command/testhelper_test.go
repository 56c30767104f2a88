package command

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/dirmesh-go/internal/cli/connection"
	"github.com/yndnr/dirmesh-go/internal/cli/output"
	"github.com/yndnr/dirmesh-go/internal/core/service"
	"github.com/yndnr/dirmesh-go/internal/protocol"
	"github.com/yndnr/dirmesh-go/internal/server/dirserver"
	"github.com/yndnr/dirmesh-go/internal/storage/memory"
)

// startServer runs a directory server on a loopback port backed by memory
// stores and returns its address.
func startServer(t *testing.T, codes protocol.Codes) string {
	t.Helper()
	dir := service.NewDirectory(memory.NewIdentityStore(), memory.NewSessionRegistry(), memory.NewCatalogStore())
	cfg := dirserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Codes = codes
	srv := dirserver.New(cfg, dir, nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// runApp runs the CLI with stdin as input and returns what it printed.
// The user's CLI config file is never read.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &out

	full := []string{"dirmesh-cli", "--no-color", "--config", filepath.Join(t.TempDir(), "cli.yaml")}
	full = append(full, args...)
	err := app.Run(full)
	return out.String(), err
}

// newTestRunner creates a runner writing uncolored table output to a
// buffer.
func newTestRunner(addr string) (*runner, error) {
	var out bytes.Buffer
	return &runner{
		client:  connection.NewClient(addr, connection.WithTimeout(2*time.Second)),
		printer: output.NewPrinter(&out, output.FormatTable, true),
	}, nil
}
