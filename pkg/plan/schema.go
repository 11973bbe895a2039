package plan

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/relaywire/agentcore/pkg/content"
)

// planSchema is generated once and reused for every generation request: the
// JSON Schema description of content.ActionPlan handed to the reasoning
// model so it returns a structured plan instead of free text.
var planSchema = mustGenerateSchema()

func mustGenerateSchema() map[string]any {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: false,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(content.ActionPlan))

	data, err := json.Marshal(schema)
	if err != nil {
		panic("plan: failed to marshal generated schema: " + err.Error())
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic("plan: failed to round-trip generated schema: " + err.Error())
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// Schema returns the JSON Schema for content.ActionPlan, passed to the model
// handler as a structured-output constraint.
func Schema() map[string]any {
	return planSchema
}
