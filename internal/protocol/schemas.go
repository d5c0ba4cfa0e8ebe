package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBaseURL = "https://beltline.ai/schemas/"

// messageTypes are the messages with a published schema, keyed by the file
// name cmd/schemagen writes.
var messageTypes = map[string]reflect.Type{
	"hello.schema.json":   reflect.TypeOf(HelloMsg{}),
	"welcome.schema.json": reflect.TypeOf(WelcomeMsg{}),
	"place.schema.json":   reflect.TypeOf(PlaceMsg{}),
	"remove.schema.json":  reflect.TypeOf(RemoveMsg{}),
	"result.schema.json":  reflect.TypeOf(ResultMsg{}),
}

// SchemaNames lists the published schema files in a stable order.
func SchemaNames() []string {
	out := make([]string, 0, len(messageTypes))
	for name := range messageTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Schema reflects the JSON schema for one message file name.
func Schema(name string) (*jsonschema.Schema, error) {
	typ, ok := messageTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := r.ReflectFromType(typ)
	s.ID = ""
	return s, nil
}

var (
	compiledOnce sync.Once
	compiled     map[string]*validator.Schema
	compileErr   error
)

func compileAll() {
	c := validator.NewCompiler()
	c.Draft = validator.Draft2020
	compiled = map[string]*validator.Schema{}
	for _, name := range SchemaNames() {
		s, err := Schema(name)
		if err != nil {
			compileErr = err
			return
		}
		raw, err := json.Marshal(s)
		if err != nil {
			compileErr = fmt.Errorf("%s: %w", name, err)
			return
		}
		if err := c.AddResource(schemaBaseURL+name, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("%s: %w", name, err)
			return
		}
	}
	for _, name := range SchemaNames() {
		s, err := c.Compile(schemaBaseURL + name)
		if err != nil {
			compileErr = fmt.Errorf("%s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

// Validate checks a raw message against the schema for name.
func Validate(name string, raw []byte) error {
	compiledOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}
	s, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
