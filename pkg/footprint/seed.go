package footprint

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

//go:embed schemas/*.json seeds/*.json
var assets embed.FS

// Format is the encoding of a seed document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers a document format from a file name or object key.
func FormatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Source yields the raw JSON documents of one revision's seed, in order.
type Source interface {
	Records(ctx context.Context) ([]json.RawMessage, error)
}

// Validator checks raw records against a revision's JSON Schema and
// specVersion constraint.
type Validator struct {
	proto  *pact.Protocol
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema for the protocol's revision.
func NewValidator(proto *pact.Protocol) (*Validator, error) {
	name := fmt.Sprintf("schemas/footprint-v%s.json", proto.Revision)
	raw, err := assets.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("no schema for revision %s: %w", proto.Revision, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	schemaURL := fmt.Sprintf("https://schemas.pact-conformance.dev/footprint-v%s.json", proto.Revision)
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Validator{proto: proto, schema: compiled}, nil
}

// Validate checks one raw record.
func (v *Validator) Validate(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return err
	}

	obj, _ := doc.(map[string]any)
	sv, _ := obj["specVersion"].(string)
	ok, err := v.proto.AcceptsSpecVersion(sv)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("specVersion %s is not served under revision %s (%s)", sv, v.proto.Revision, v.proto.SpecVersions)
	}
	return nil
}

// Load validates every record from src and builds the revision's store.
// Any invalid record fails the whole load.
func Load[T Record](ctx context.Context, proto *pact.Protocol, src Source) (*Store[T], error) {
	v, err := NewValidator(proto)
	if err != nil {
		return nil, err
	}
	raws, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read seed for revision %s: %w", proto.Revision, err)
	}

	records := make([]T, 0, len(raws))
	for i, raw := range raws {
		if err := v.Validate(raw); err != nil {
			return nil, fmt.Errorf("seed record %d (revision %s): %w", i, proto.Revision, err)
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("seed record %d (revision %s): %w", i, proto.Revision, err)
		}
		records = append(records, rec)
	}
	return NewStore(proto.Revision, records)
}

// SplitDocument turns a seed document into raw records. It accepts a bare
// array or an object with a "data" array, in JSON or YAML.
func SplitDocument(doc []byte, format Format) ([]json.RawMessage, error) {
	if format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("parse yaml seed: %w", err)
		}
		converted, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("convert yaml seed: %w", err)
		}
		doc = converted
	}

	doc = bytes.TrimSpace(doc)
	if len(doc) > 0 && doc[0] == '{' {
		var wrapped struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(doc, &wrapped); err != nil {
			return nil, fmt.Errorf("parse seed: %w", err)
		}
		return wrapped.Data, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(doc, &list); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return list, nil
}

// EmbeddedSource serves the sample records compiled into the binary.
type EmbeddedSource struct {
	Revision pact.Revision
}

func (s EmbeddedSource) Records(context.Context) ([]json.RawMessage, error) {
	doc, err := assets.ReadFile(fmt.Sprintf("seeds/footprints-v%s.json", s.Revision))
	if err != nil {
		return nil, err
	}
	return SplitDocument(doc, FormatJSON)
}
