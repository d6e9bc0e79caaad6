package mappable

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// TextCodec converts between tree values and a textual framing. It is the
// external boundary the JSON and YAML entry points compose with; the core
// never parses text itself.
type TextCodec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSONCodec returns the default JSON text codec, backed by goccy/go-json
// with number preservation (numbers surface as json.Number, not float64).
func JSONCodec() TextCodec { return jsonCodec{} }

type jsonCodec struct{}

func (jsonCodec) Name() string { return "go-json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// YAMLCodec returns a yaml.v3-backed text codec. Decoded mappings are
// normalized to the tree contract (string keys, map[string]any).
func YAMLCodec() TextCodec { return yamlCodec{} }

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Unmarshal(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalizeYAML(v)
}

// normalizeYAML rewrites yaml.v3 output into the tree value contract.
// yaml.v3 already produces map[string]any for string-keyed mappings but
// map[any]any for anything else, which the tree contract rejects.
func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, ev := range t {
			nv, err := normalizeYAML(ev)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, ev := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("yaml: non-string key %v", k)
			}
			nv, err := normalizeYAML(ev)
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, ev := range t {
			nv, err := normalizeYAML(ev)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}

// ---- text entry points ----

// FromJSON decodes JSON text into T by composing the JSON codec with
// FromValue.
func FromJSON[T any](c *Container, data []byte) (T, error) {
	return FromText[T](c, JSONCodec(), data)
}

// ToJSON encodes v to JSON text by composing ToValue with the JSON codec.
func ToJSON[T any](c *Container, v T, opts ...EncodeOptions) ([]byte, error) {
	return ToText(c, JSONCodec(), v, opts...)
}

// FromYAML decodes YAML text into T.
func FromYAML[T any](c *Container, data []byte) (T, error) {
	return FromText[T](c, YAMLCodec(), data)
}

// ToYAML encodes v to YAML text.
func ToYAML[T any](c *Container, v T, opts ...EncodeOptions) ([]byte, error) {
	return ToText(c, YAMLCodec(), v, opts...)
}

// FromText decodes text through an arbitrary codec.
func FromText[T any](c *Container, tc TextCodec, data []byte) (T, error) {
	tree, err := tc.Unmarshal(data)
	if err != nil {
		var zero T
		return zero, chain(MethodDecode, func() string { return tc.Name() }, err)
	}
	return FromValue[T](c, tree)
}

// ToText encodes a value to text through an arbitrary codec.
func ToText[T any](c *Container, tc TextCodec, v T, opts ...EncodeOptions) ([]byte, error) {
	tree, err := ToValue(c, v, opts...)
	if err != nil {
		return nil, err
	}
	out, err := tc.Marshal(tree)
	if err != nil {
		return nil, chain(MethodEncode, func() string { return tc.Name() }, err)
	}
	return out, nil
}
