package msgcat

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("batch.summary", map[string]any{"Succeeded": 3, "Failed": 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Batch finished: 3 succeeded, 1 failed." {
		t.Fatalf("unexpected text %q", out)
	}
	for _, key := range []string{"export.done", "export.failed", "quality.reduced", "batch.cancelled"} {
		found := false
		for _, k := range c.Keys() {
			if k == key {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing default key %s", key)
		}
	}
}

func TestMissingDataIsError(t *testing.T) {
	c, _ := New("")
	if _, err := c.Render("batch.summary", map[string]any{"Succeeded": 1}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.Text("no.such.key", nil, "fallback"); got != "fallback" {
		t.Fatalf("Text should fall back, got %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.Text("batch.resumed", nil, "fb"); got != "fb" {
		t.Fatalf("nil catalog should fall back")
	}
}

func TestOverrides(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml":    {Data: []byte("batch:\n  resumed: \"Weiter.\"\n")},
		"b.yml":     {Data: []byte("custom:\n  hello: \"hi {{.Name}}\"\n")},
		"notes.txt": {Data: []byte("ignored")},
	}
	c, err := NewFS(fsys)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if got, _ := c.Render("batch.resumed", nil); got != "Weiter." {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("custom.hello", map[string]string{"Name": "Ann"}); got != "hi Ann" {
		t.Fatalf("new key not rendered: %q", got)
	}
	if got, _ := c.Render("batch.paused", map[string]int{"Job": 2, "Total": 5}); !strings.Contains(got, "2 of 5") {
		t.Fatalf("untouched default changed: %q", got)
	}
}

func TestOverrideErrors(t *testing.T) {
	dup := fstest.MapFS{
		"a.yaml": {Data: []byte("batch:\n  resumed: x\n")},
		"b.yaml": {Data: []byte("batch:\n  resumed: y\n")},
	}
	if _, err := NewFS(dup); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	nonString := fstest.MapFS{"a.yaml": {Data: []byte("batch:\n  total: 3\n")}}
	if _, err := NewFS(nonString); err == nil {
		t.Fatalf("expected error for non-string leaf")
	}
	if _, err := New("/definitely/not/here"); err == nil {
		t.Fatalf("expected error for missing override dir")
	}
}
