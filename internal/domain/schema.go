package domain

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.json
var schemaFS embed.FS

var (
	profileInputSchema    = mustCompileSchema("schema/profile_input.json")
	profileMetadataSchema = mustCompileSchema("schema/profile_metadata.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// validateDocument decodes raw and checks it against schema. Schema
// violations are reported as *ValidationError.
func validateDocument(schema *jsonschema.Schema, raw []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return invalid("", "malformed JSON")
	}
	if dec.More() {
		return invalid("", "trailing data after JSON value")
	}
	if err := schema.Validate(doc); err != nil {
		return schemaViolation(err)
	}
	return nil
}

// schemaViolation reports the first leaf cause of a schema failure.
func schemaViolation(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return invalid("", err.Error())
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return invalid(strings.TrimPrefix(ve.InstanceLocation, "/"), ve.Message)
}
