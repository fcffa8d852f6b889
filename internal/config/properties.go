package config

import (
	"encoding/json"
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"
)

// Properties holds the deployment properties consumed by the proxy
// configuration model, e.g. "deployment.proxy.type": "1".
type Properties map[string]string

// Property implements proxy.Provider.
func (p Properties) Property(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Clone returns an independent copy of p.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	return maps.Clone(p)
}

// UnmarshalYAML accepts any scalar value, so `deployment.proxy.type: 1`
// and `deployment.proxy.type: "1"` are equivalent.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("properties must be a mapping, got line %d", value.Line)
	}
	out := make(Properties, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("property %q must be a scalar (line %d)", key.Value, val.Line)
		}
		out[key.Value] = val.Value
	}
	*p = out
	return nil
}

// UnmarshalJSON accepts strings, numbers and booleans as property values.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64, bool:
			out[k] = fmt.Sprint(tv)
		case nil:
			out[k] = ""
		default:
			return fmt.Errorf("property %q must be a scalar", k)
		}
	}
	*p = out
	return nil
}
