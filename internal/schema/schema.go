// Package schema validates JSON documents against the published record schema.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"autotrade/internal/model"

	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

const (
	DefaultSchemaPath = "schemas/autotrade_v2.schema.json"
	DefaultSamplePath = "schemas/examples/barrow.sample.json"
)

func LoadSchema(path string) (*spec.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var s spec.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks an already decoded JSON document.
func Validate(s *spec.Schema, doc any) error {
	if err := validate.AgainstSchema(s, doc, strfmt.Default); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func ValidateFiles(schemaPath, samplePath string) error {
	s, err := LoadSchema(schemaPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(samplePath)
	if err != nil {
		return fmt.Errorf("read sample: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse sample %s: %w", samplePath, err)
	}
	return Validate(s, doc)
}

// DecodeBarRow reads a sample through the strict BarRow contract.
func DecodeBarRow(path string) (model.BarRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.BarRow{}, fmt.Errorf("read sample: %w", err)
	}
	var bar model.BarRow
	if err := json.Unmarshal(data, &bar); err != nil {
		return model.BarRow{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return bar, nil
}
