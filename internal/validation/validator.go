// Package validation checks JSON request bodies against JSON schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/FairForge/dctip/internal/common"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultMaxBodySize bounds request bodies read by DecodeJSON.
const DefaultMaxBodySize = 32 << 20

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema literal and panics if it is malformed.
func MustCompile(schemaStr string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaStr))
	if err != nil {
		panic(fmt.Sprintf("validation: compile schema: %v", err))
	}
	return &Schema{schema: s}
}

// Validate checks raw JSON against the schema. Failures wrap common.ErrValidation.
func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON body: %w", common.ErrValidation)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateContentType accepts application/json with or without parameters. An empty header is allowed.
func ValidateContentType(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: content type must be application/json", common.ErrValidation)
	}
	return nil
}

// DecodeJSON reads the request body, validates it against schema when one is
// given, and decodes it into dst.
func DecodeJSON(r *http.Request, schema *Schema, dst interface{}) error {
	if err := ValidateContentType(r); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxBodySize+1))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(body) > DefaultMaxBodySize {
		return fmt.Errorf("%w: request body too large", common.ErrValidation)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: request body is required", common.ErrValidation)
	}

	if schema != nil {
		if err := schema.Validate(body); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}
