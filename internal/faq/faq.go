// Package faq holds the static question/answer list the sales agent answers from.
package faq

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed swiggy_faq.json
var defaultFS embed.FS

// Entry is one question/answer pair.
type Entry struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Document is the on-disk FAQ layout.
type Document struct {
	FAQs []Entry `json:"faqs" yaml:"faqs"`
}

// Index matches free-text queries against a fixed FAQ list.
type Index struct {
	entries []Entry
	tokens  [][]string
}

// New builds an index over entries. Every entry needs a question and an answer.
func New(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, errors.New("faq list is empty")
	}
	idx := &Index{
		entries: make([]Entry, len(entries)),
		tokens:  make([][]string, len(entries)),
	}
	copy(idx.entries, entries)
	for i, e := range idx.entries {
		if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("faq entry %d: question and answer are required", i)
		}
		idx.tokens[i] = strings.Fields(strings.ToLower(e.Question))
	}
	return idx, nil
}

// Match returns the answer of the first entry whose question has any token
// contained in the lower-cased query.
func (x *Index) Match(query string) (string, bool) {
	q := strings.ToLower(query)
	for i, toks := range x.tokens {
		for _, tok := range toks {
			if strings.Contains(q, tok) {
				return x.entries[i].Answer, true
			}
		}
	}
	return "", false
}

// Entries returns a copy of the indexed entries in list order.
func (x *Index) Entries() []Entry {
	out := make([]Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

// Default returns the embedded Swiggy FAQ.
func Default() (*Index, error) {
	data, err := defaultFS.ReadFile("swiggy_faq.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded faq: %w", err)
	}
	return Parse(data, ".json")
}

// Load reads an FAQ file (YAML or JSON). Format is detected by extension
// (.yaml/.yml → YAML, .json → JSON) or by content.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq: %w", err)
	}
	idx, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// Parse decodes an FAQ document. ext is a format hint; empty means detect from content.
func Parse(data []byte, ext string) (*Index, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	var doc Document
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse faq json: %w", err)
		}
	case ".yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse faq yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported faq format %q", ext)
	}
	return New(doc.FAQs)
}
