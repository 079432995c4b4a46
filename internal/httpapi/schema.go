package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type bodySchemas struct {
	create *jsonschema.Schema
	update *jsonschema.Schema
}

const schemaBaseURL = "https://taskmanager.local/schemas/"

var schemas = mustCompileSchemas()

func mustCompileSchemas() bodySchemas {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	compile := func(name string) *jsonschema.Schema {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			panic(fmt.Sprintf("read schema %s: %v", name, err))
		}
		if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("add schema %s: %v", name, err))
		}
		return compiler.MustCompile(schemaBaseURL + name)
	}

	return bodySchemas{
		create: compile("create_task.json"),
		update: compile("update_task.json"),
	}
}

// bodyError is a request body that is not valid JSON or does not match its schema.
type bodyError struct {
	msg string
}

func (e *bodyError) Error() string { return e.msg }

// validateBody checks raw against schema and returns a client-facing error.
func validateBody(schema *jsonschema.Schema, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &bodyError{msg: "request body is required"}
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &bodyError{msg: "invalid JSON body"}
	}

	if err := schema.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &bodyError{msg: err.Error()}
		}
		var msgs []string
		collectSchemaErrors(ve, &msgs)
		return &bodyError{msg: strings.Join(msgs, "; ")}
	}
	return nil
}

func collectSchemaErrors(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			*out = append(*out, err.Message)
			return
		}
		*out = append(*out, strings.ReplaceAll(field, "/", ".")+": "+err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}
