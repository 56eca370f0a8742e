// Package schema validates request bodies against embedded JSON schemas.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrSchemaNotFound = errors.New("schema not found")

type SchemaType int

const (
	SchemaTypeAddDirectory SchemaType = iota
	SchemaTypeRemoveDirectory
)

func (t SchemaType) String() string {
	switch t {
	case SchemaTypeAddDirectory:
		return "add_directory"
	case SchemaTypeRemoveDirectory:
		return "remove_directory"
	default:
		return "unknown"
	}
}

//go:embed add-directory.json
var addDirectorySchema []byte

//go:embed remove-directory.json
var removeDirectorySchema []byte

type Schema struct {
	schemas map[SchemaType]*gojsonschema.Schema
}

// ValidationError lists the reasons a document did not match its schema.
type ValidationError struct {
	Type    SchemaType
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s request: %s", e.Type, strings.Join(e.Details, "; "))
}

func NewRequestSchema() (*Schema, error) {
	sources := map[SchemaType][]byte{
		SchemaTypeAddDirectory:    addDirectorySchema,
		SchemaTypeRemoveDirectory: removeDirectorySchema,
	}

	schemas := make(map[SchemaType]*gojsonschema.Schema, len(sources))
	for t, src := range sources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s schema: %w", t, err)
		}
		schemas[t] = s
	}

	return &Schema{schemas: schemas}, nil
}

// Validate checks data against the schema of type t. It returns a
// *ValidationError if data is well-formed JSON that does not match.
func (s *Schema) Validate(t SchemaType, data []byte) error {
	schema, ok := s.schemas[t]
	if !ok {
		return ErrSchemaNotFound
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Type: t, Details: []string{err.Error()}}
	}

	if res.Valid() {
		return nil
	}

	details := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		details = append(details, desc.String())
	}

	return &ValidationError{Type: t, Details: details}
}
