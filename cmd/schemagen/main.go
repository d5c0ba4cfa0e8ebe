package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"beltline.ai/internal/protocol"
	"beltline.ai/internal/sim/catalogs"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "./schemas", "directory to write the JSON schemas into")
	flag.Parse()

	n, err := writeAll(outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schemagen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d schemas to %s\n", n, outDir)
}

// writeAll writes structures.schema.json plus one file per build message.
func writeAll(outDir string) (int, error) {
	if err := writeSchema(filepath.Join(outDir, "structures.schema.json"), catalogs.StructureSchema()); err != nil {
		return 0, err
	}
	n := 1
	for _, name := range protocol.SchemaNames() {
		s, err := protocol.Schema(name)
		if err != nil {
			return n, err
		}
		if err := writeSchema(filepath.Join(outDir, "protocol", name), s); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
