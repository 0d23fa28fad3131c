package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

type entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestOpen_CreatesEmptyArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "leads.json")
	f, err := Open[entry](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("new archive = %q, want empty array", data)
	}
	recs, err := f.List(context.Background())
	if err != nil || len(recs) != 0 {
		t.Fatalf("List: %v %v", recs, err)
	}
}

func TestAppend_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.json")
	f, err := Open[entry](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := []entry{{"1", "Alice"}, {"2", "Bob"}, {"3", "Chen"}}
	for _, e := range want {
		if err := f.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	reopened, err := Open[entry](path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestAppend_ConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	f, err := Open[entry](filepath.Join(t.TempDir(), "leads.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const n = 25
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return f.Append(ctx, entry{ID: fmt.Sprint(i), Name: "caller"})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := f.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != n {
		t.Fatalf("got %d records, want %d", len(got), n)
	}
	seen := map[string]bool{}
	for _, e := range got {
		seen[e.ID] = true
	}
	if len(seen) != n {
		t.Errorf("lost updates: %d distinct ids, want %d", len(seen), n)
	}
}

func TestOpen_RejectsCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open[entry](path); err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}

func TestAppend_FailsOnUnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	f, err := Open[entry](filepath.Join(dir, "leads.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	if err := f.Append(context.Background(), entry{ID: "1"}); err == nil {
		t.Fatal("expected write failure to propagate")
	}
}

func TestAppend_CancelledContext(t *testing.T) {
	f, err := Open[entry](filepath.Join(t.TempDir(), "leads.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Append(ctx, entry{ID: "1"}); err == nil {
		t.Fatal("expected context error")
	}
}
