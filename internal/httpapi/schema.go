// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "https://recyclehub.app/schemas/"

// requestSchemas lists every request body the API accepts, keyed by the
// file name used for its published schema.
var requestSchemas = map[string]any{
	"signup":         &SignupRequest{},
	"login":          &LoginRequest{},
	"email":          &EmailRequest{},
	"verify-email":   &VerifyEmailRequest{},
	"reset-password": &ResetPasswordRequest{},
	"update-profile": &UpdateProfileRequest{},
}

// compiled caches compiled schemas by request type.
var compiled sync.Map

// reflectSchema generates the JSON Schema for a request struct.
func reflectSchema(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
	}
	return r.Reflect(v)
}

// GenerateSchemas renders the published JSON Schema of every request body,
// keyed by name.
func GenerateSchemas() (map[string][]byte, error) {
	out := make(map[string][]byte, len(requestSchemas))
	for name, v := range requestSchemas {
		schema := reflectSchema(v)
		schema.ID = jsonschema.ID(schemaBaseURL + name + ".schema.json")
		schema.Title = "RecycleHub " + name + " request"

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return nil, oops.Code("SCHEMA_GENERATE_FAILED").With("schema", name).Wrap(err)
		}
		out[name] = data
	}
	return out, nil
}

// schemaFor returns the compiled schema for the type of v.
func schemaFor(v any) (*jschema.Schema, error) {
	t := reflect.TypeOf(v)
	if sch, ok := compiled.Load(t); ok {
		return sch.(*jschema.Schema), nil
	}

	data, err := json.Marshal(reflectSchema(v))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("type", t.String()).Wrap(err)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("type", t.String()).Wrap(err)
	}

	url := schemaBaseURL + strings.TrimPrefix(t.String(), "*") + ".json"
	c := jschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("type", t.String()).Wrap(err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("type", t.String()).Wrap(err)
	}

	actual, _ := compiled.LoadOrStore(t, sch)
	return actual.(*jschema.Schema), nil
}

// validateBody checks a raw JSON body against the schema of dst and decodes
// it into dst. Errors carry REQUEST_MALFORMED when the body is not JSON and
// REQUEST_INVALID when it does not satisfy the schema.
func validateBody(body []byte, dst any) error {
	sch, err := schemaFor(dst)
	if err != nil {
		return err
	}

	inst, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return oops.Code("REQUEST_MALFORMED").Wrap(err)
	}
	if err := sch.Validate(inst); err != nil {
		return oops.Code("REQUEST_INVALID").Wrap(err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return oops.Code("REQUEST_INVALID").Wrap(err)
	}
	return nil
}
