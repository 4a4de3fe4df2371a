// Package types defines the semantic entities discovered during an
// investigation (Domain, Ip, Email, ...) and the global registry that maps
// type names to their schemas.
//
// An entity is a validated record. A type declares its fields, exactly one
// primary-key field used to identify the entity in the graph, and an optional
// label used for display. An entity that fails validation never enters the
// system.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/flowsint/flowsint/internal/interfaces"
)

// Entity is a typed, validated record
type Entity interface {
	// TypeName returns the exact registered type name, e.g. "Domain"
	TypeName() string
	// KeyField returns the name of the primary-key field
	KeyField() string
	// KeyValue returns the primary-key value identifying the entity in the graph
	KeyValue() string
	// DisplayLabel returns the stored label, or a computed one when absent
	DisplayLabel() string
}

// Base carries the optional UI-readable label shared by all entity types
type Base struct {
	Label string `json:"label,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct validation on an entity and converts validator output
// into a ValidationError listing the offending fields.
func Validate(e Entity) error {
	if err := validate.Struct(e); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		return &interfaces.ValidationError{
			TypeName: e.TypeName(),
			Fields:   fields,
			Reason:   err.Error(),
		}
	}
	if e.KeyValue() == "" {
		return &interfaces.ValidationError{
			TypeName: e.TypeName(),
			Fields:   []string{e.KeyField()},
			Reason:   "primary key is empty",
		}
	}
	return nil
}

// Parse builds and validates an entity of the named type from a raw record.
// Unknown fields in the record are ignored; a record that fails the type's
// validation rules is rejected.
func Parse(typeName string, record map[string]interface{}) (Entity, error) {
	desc, err := Registry.Get(typeName)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record for %s: %w", typeName, err)
	}

	entity := desc.New()
	if err := json.Unmarshal(data, entity); err != nil {
		return nil, &interfaces.ValidationError{TypeName: typeName, Reason: err.Error()}
	}

	if err := Validate(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// ToRecord serializes an entity back into a field-name keyed record.
// Nested entity fields survive as nested maps; callers that persist to the
// graph must hoist them into their own nodes first.
func ToRecord(e Entity) (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", e.TypeName(), err)
	}
	record := map[string]interface{}{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to rebuild record for %s: %w", e.TypeName(), err)
	}
	return record, nil
}

// labelOr returns the stored label when present, otherwise the fallback
// (typically the primary-key value).
func labelOr(stored, fallback string) string {
	if stored != "" {
		return stored
	}
	return fallback
}
