package codec

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema pins the envelope's required shape: an id, a dotted
// three-part kind tag and an object record body. Additional properties
// are allowed so additive future envelope fields pass validation.
const envelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "annotation record envelope",
	"type": "object",
	"required": ["id", "kind", "record"],
	"properties": {
		"id": {
			"type": "string",
			"minLength": 1
		},
		"kind": {
			"type": "string",
			"pattern": "^[^.]+\\.[^.]+\\.[^.]+$"
		},
		"record": {
			"type": "object"
		}
	},
	"additionalProperties": true
}`

// compiledEnvelopeSchema is compiled once; the schema text is a
// constant so compilation cannot fail at runtime.
var compiledEnvelopeSchema = gojsonschema.NewStringLoader(envelopeSchema)

// validateEnvelope checks the raw envelope bytes against the embedded
// schema and folds any violations into one error message.
func validateEnvelope(data []byte) error {
	result, err := gojsonschema.Validate(compiledEnvelopeSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("envelope schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("envelope schema violations: %s", strings.Join(details, "; "))
}
