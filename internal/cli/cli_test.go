package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/weft/internal/trace"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.js")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRootCmdHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	want := map[string]bool{"run": false, "trace": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s missing", name)
		}
	}
}

func TestRunRecordsTrace(t *testing.T) {
	script := writeScript(t, `
(function* () {
    const job = yield forkio(function* () {
        yield sleep(0.01);
        return 21;
    });
    const a = yield job.wait();
    const b = yield job.wait();
    return a + b;
})
`)
	db := filepath.Join(t.TempDir(), "trace.db")

	root := NewRootCmd()
	root.SetArgs([]string{"run", script, "--trace", db, "--log-level", "error"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	store, err := trace.NewSQLiteStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Outcome != "OK" {
		t.Errorf("outcome = %s, want OK", runs[0].Outcome)
	}
	if runs[0].Script != "prog.js" {
		t.Errorf("script = %s", runs[0].Script)
	}
}

func TestRunMissingScript(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"run", filepath.Join(t.TempDir(), "absent.js")})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("run of missing script succeeded, want error")
	}
}

func TestRunScriptFailure(t *testing.T) {
	script := writeScript(t, `
(function* () {
    throw new Error("boom");
})
`)
	root := NewRootCmd()
	root.SetArgs([]string{"run", script, "--log-level", "error"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	if err == nil {
		t.Fatal("run succeeded, want error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, `
(function* () {
    for (;;) {
        yield sleep(0.01);
    }
})
`)
	root := NewRootCmd()
	root.SetArgs([]string{"run", script, "--timeout", "60ms", "--log-level", "error"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("run of endless script finished, want timeout error")
	}
}
