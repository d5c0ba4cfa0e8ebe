package catalogs

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// StructureSchema is the JSON schema for structures.json, reflected from
// StructureDef. cmd/schemagen writes it out for editors; Load validates
// against the same value.
func StructureSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	def := reflector.ReflectFromType(reflect.TypeOf(StructureDef{}))
	def.Version = ""
	def.ID = ""
	def.Title = "Structure"
	def.Description = "A placeable structure: footprint, facings and the logistics components it carries."

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Beltline structures.json",
		Description: "Structure definitions consumed by the placement handler.",
		Type:        "array",
		Items:       def,
	}
}
