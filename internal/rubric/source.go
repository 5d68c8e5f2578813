package rubric

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ieltsgenai/prep-api/internal/models"
)

// ErrUnknownType indicates no rubric is registered for the assessment type.
var ErrUnknownType = errors.New("unknown assessment type")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "mem://rubric.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Source is a read-only rubric lookup keyed by assessment type.
type Source interface {
	Lookup(t models.AssessmentType) (models.Rubric, error)
	Types() []models.AssessmentType
}

// StaticSource serves rubrics from an in-memory table fixed at construction.
type StaticSource struct {
	rubrics map[models.AssessmentType]models.Rubric
}

// NewStaticSource returns the built-in rubric table.
func NewStaticSource() *StaticSource {
	source, err := newStaticSource(builtin())
	if err != nil {
		panic(fmt.Sprintf("built-in rubric table is invalid: %v", err))
	}
	return source
}

func newStaticSource(rubrics []models.Rubric) (*StaticSource, error) {
	table := make(map[models.AssessmentType]models.Rubric, len(rubrics))
	for _, r := range rubrics {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		table[r.Type] = r
	}
	return &StaticSource{rubrics: table}, nil
}

func (s *StaticSource) Lookup(t models.AssessmentType) (models.Rubric, error) {
	r, ok := s.rubrics[t]
	if !ok {
		return models.Rubric{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return r, nil
}

func (s *StaticSource) Types() []models.AssessmentType {
	types := make([]models.AssessmentType, 0, len(s.rubrics))
	for _, t := range models.AssessmentTypes {
		if _, ok := s.rubrics[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

type rubricFile struct {
	Rubrics []models.Rubric `json:"rubrics"`
}

// LoadFile reads a JSON rubric set, validates it against the rubric schema and
// overlays it on the built-in table. Types missing from the file keep the
// built-in rubric.
func LoadFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric file: %w", err)
	}
	return Parse(data)
}

// Parse validates and loads a JSON rubric set.
func Parse(data []byte) (*StaticSource, error) {
	schema, err := rubricSchema()
	if err != nil {
		return nil, err
	}

	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decode rubric file: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return nil, fmt.Errorf("rubric file does not match schema: %w", err)
	}

	var file rubricFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode rubric file: %w", err)
	}

	merged := make(map[models.AssessmentType]models.Rubric)
	for _, r := range builtin() {
		merged[r.Type] = r
	}
	for _, r := range file.Rubrics {
		merged[r.Type] = r
	}

	rubrics := make([]models.Rubric, 0, len(merged))
	for _, r := range merged {
		rubrics = append(rubrics, r)
	}
	return newStaticSource(rubrics)
}

func rubricSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("add rubric schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}
