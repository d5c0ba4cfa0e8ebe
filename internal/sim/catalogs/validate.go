package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const structureSchemaURL = "https://beltline.ai/schemas/structures.schema.json"

func compileStructureSchema() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(StructureSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(structureSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(structureSchemaURL)
}

func validateStructuresJSON(raw []byte) error {
	s, err := compileStructureSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
