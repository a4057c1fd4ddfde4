package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	// ExtensionKey marks a schema property as a picker.
	ExtensionKey = "x-picker"
	// EndpointExtensionKey optionally carries the candidate endpoint next to
	// the picker extension.
	EndpointExtensionKey = "x-endpoint"
)

var (
	// ErrEmptyDocument is returned for an empty payload.
	ErrEmptyDocument = errors.New("openapi: document payload is empty")
	// ErrInvalidExtension reports an x-picker value that cannot be read.
	ErrInvalidExtension = errors.New("openapi: invalid x-picker extension")
)

// Endpoint describes where candidates come from.
type Endpoint struct {
	URL         string
	Method      string
	ResultsPath string
	SearchParam string
	Params      map[string]string
}

// Definition is one picker declared on a schema property.
type Definition struct {
	Schema            string
	Property          string
	Template          string
	DiscriminatorPath string
	SideChannel       string
	IDPath            string
	AllowFreeText     bool
	Endpoint          *Endpoint
}

// Key returns "<schema>.<property>".
func (d Definition) Key() string {
	return d.Schema + "." + d.Property
}

// LoadDefinitions parses an OpenAPI 3 document (JSON or YAML) and returns every
// picker definition found on component schema properties.
func LoadDefinitions(ctx context.Context, data []byte) (map[string]Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return collect(doc)
}

// Definitions loads src and extracts its picker definitions.
func (l *Loader) Definitions(ctx context.Context, src Source) (map[string]Definition, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return LoadDefinitions(ctx, data)
}

func collect(doc *openapi3.T) (map[string]Definition, error) {
	out := make(map[string]Definition)
	if doc == nil || doc.Components == nil {
		return out, nil
	}

	schemaNames := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		schemaNames = append(schemaNames, name)
	}
	sort.Strings(schemaNames)

	var errs []error
	for _, schemaName := range schemaNames {
		ref := doc.Components.Schemas[schemaName]
		if ref == nil || ref.Value == nil {
			continue
		}
		propNames := make([]string, 0, len(ref.Value.Properties))
		for name := range ref.Value.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, propName := range propNames {
			ext := propertyExtensions(ref.Value.Properties[propName])
			if ext == nil {
				continue
			}
			def, err := definitionFromExtensions(ext)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", schemaName, propName, err))
				continue
			}
			def.Schema = schemaName
			def.Property = propName
			out[def.Key()] = def
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// propertyExtensions returns the extensions carrying x-picker, looking at the
// property itself and then at array items.
func propertyExtensions(ref *openapi3.SchemaRef) map[string]any {
	if ref == nil || ref.Value == nil {
		return nil
	}
	if _, ok := ref.Value.Extensions[ExtensionKey]; ok {
		return ref.Value.Extensions
	}
	if items := ref.Value.Items; items != nil && items.Value != nil {
		if _, ok := items.Value.Extensions[ExtensionKey]; ok {
			return items.Value.Extensions
		}
	}
	return nil
}

func definitionFromExtensions(ext map[string]any) (Definition, error) {
	var def Definition
	switch raw := ext[ExtensionKey].(type) {
	case string:
		def.Template = raw
	case map[string]any:
		def.Template = stringValue(raw["template"])
		def.DiscriminatorPath = stringValue(raw["discriminatorPath"])
		def.SideChannel = stringValue(raw["sideChannel"])
		def.IDPath = stringValue(raw["idPath"])
		def.AllowFreeText = boolValue(raw["allowFreeText"])
		if endpoint, ok := raw["endpoint"].(map[string]any); ok {
			def.Endpoint = endpointFrom(endpoint)
		}
	default:
		return Definition{}, fmt.Errorf("%w: expected object or string, got %T", ErrInvalidExtension, raw)
	}
	if strings.TrimSpace(def.Template) == "" {
		return Definition{}, fmt.Errorf("%w: template is required", ErrInvalidExtension)
	}
	if def.Endpoint == nil {
		if endpoint, ok := ext[EndpointExtensionKey].(map[string]any); ok {
			def.Endpoint = endpointFrom(endpoint)
		}
	}
	return def, nil
}

func endpointFrom(raw map[string]any) *Endpoint {
	endpoint := &Endpoint{
		URL:         stringValue(raw["url"]),
		Method:      strings.ToUpper(stringValue(raw["method"])),
		ResultsPath: stringValue(raw["resultsPath"]),
		SearchParam: stringValue(raw["searchParam"]),
	}
	if params, ok := raw["params"].(map[string]any); ok && len(params) > 0 {
		endpoint.Params = make(map[string]string, len(params))
		for key, value := range params {
			endpoint.Params[key] = stringValue(value)
		}
	}
	if endpoint.URL == "" {
		return nil
	}
	return endpoint
}

func stringValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}

func boolValue(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(typed))
		return err == nil && b
	default:
		return false
	}
}
