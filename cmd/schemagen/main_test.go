package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"beltline.ai/internal/protocol"
)

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	n, err := writeAll(dir)
	if err != nil {
		t.Fatalf("writeAll: %v", err)
	}
	if want := 1 + len(protocol.SchemaNames()); n != want {
		t.Fatalf("wrote %d want %d", n, want)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "structures.schema.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["type"] != "array" {
		t.Fatalf("structures schema type=%v", doc["type"])
	}

	raw, err = os.ReadFile(filepath.Join(dir, "protocol", "place.schema.json"))
	if err != nil {
		t.Fatalf("read place: %v", err)
	}
	doc = nil
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal place: %v", err)
	}
	props, _ := doc["properties"].(map[string]any)
	if _, ok := props["structure"]; !ok {
		t.Fatalf("place schema has no structure property: %s", raw)
	}
	if _, err := os.Stat(filepath.Join(dir, "protocol", "place.schema.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
