package solar

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

type moodSchemaShape struct {
	MoodScore int      `json:"mood_score" jsonschema:"required,minimum=1,maximum=100,description=Overall mood from 1 (extremely negative) to 100 (extremely positive)"`
	Emotions  []string `json:"emotions" jsonschema:"required,description=Top three emotions expressed"`
	Themes    []string `json:"themes" jsonschema:"required,description=Main themes discussed"`
	Summary   string   `json:"summary" jsonschema:"required,description=Two or three sentence summary"`
}

var moodSchema = generateSchema[moodSchemaShape]()

func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	raw, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	// Strict structured output rejects the $schema/$id annotations.
	delete(out, "$schema")
	delete(out, "$id")
	out["additionalProperties"] = false
	return out
}
