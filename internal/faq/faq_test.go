package faq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustIndex(t *testing.T, entries ...Entry) *Index {
	t.Helper()
	idx, err := New(entries)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return idx
}

func TestMatch(t *testing.T) {
	idx := mustIndex(t,
		Entry{Question: "Delivery coverage", Answer: "We deliver everywhere."},
		Entry{Question: "Refund policy", Answer: "Full refunds before acceptance."},
	)

	tests := []struct {
		name   string
		query  string
		want   string
		wantOK bool
	}{
		{"token substring", "What is your refund policy", "Full refunds before acceptance.", true},
		{"case insensitive", "REFUND please", "Full refunds before acceptance.", true},
		{"first entry wins", "delivery and refund", "We deliver everywhere.", true},
		{"token inside word", "refunds", "Full refunds before acceptance.", true},
		{"no overlap", "Alice", "", false},
		{"empty query", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Match(tt.query)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.query, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for empty list")
	}
	if _, err := New([]Entry{{Question: "pricing", Answer: ""}}); err == nil {
		t.Error("expected error for missing answer")
	}
	if _, err := New([]Entry{{Question: "  ", Answer: "x"}}); err == nil {
		t.Error("expected error for blank question")
	}
}

func TestEntries_IsACopy(t *testing.T) {
	idx := mustIndex(t, Entry{Question: "pricing", Answer: "per seat"})
	got := idx.Entries()
	got[0].Answer = "changed"

	if answer, _ := idx.Match("pricing"); answer != "per seat" {
		t.Errorf("index mutated through Entries(): %q", answer)
	}
}

func TestDefault(t *testing.T) {
	idx, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(idx.Entries()) == 0 {
		t.Fatal("expected embedded entries")
	}
	if _, ok := idx.Match("what is your refund policy"); !ok {
		t.Error("expected embedded FAQ to answer a refund question")
	}
}

func TestLoad_Formats(t *testing.T) {
	dir := t.TempDir()
	want := []Entry{
		{Question: "pricing", Answer: "per seat"},
		{Question: "coverage", Answer: "all metros"},
	}

	files := map[string]string{
		"faq.json": `{"faqs":[{"question":"pricing","answer":"per seat"},{"question":"coverage","answer":"all metros"}]}`,
		"faq.yml": "faqs:\n  - question: pricing\n    answer: per seat\n  - question: coverage\n    answer: all metros\n",
		"faq.txt": `{"faqs":[{"question":"pricing","answer":"per seat"},{"question":"coverage","answer":"all metros"}]}`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if name == "faq.txt" {
				if _, err := Load(path); err == nil {
					t.Fatal("expected unsupported extension error")
				}
				return
			}
			idx, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(want, idx.Entries()); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_DetectsFormat(t *testing.T) {
	if _, err := Parse([]byte(`{"faqs":[{"question":"a","answer":"b"}]}`), ""); err != nil {
		t.Errorf("json detect: %v", err)
	}
	if _, err := Parse([]byte("faqs:\n  - question: a\n    answer: b\n"), ""); err != nil {
		t.Errorf("yaml detect: %v", err)
	}
}

func TestLoad_Failures(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"faqs": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("faqs: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("expected error for empty list")
	}
}
