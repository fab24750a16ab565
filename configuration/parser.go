package configuration

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// envKeyToConfigKey maps an environment variable name to the matching config key.
func envKeyToConfigKey(envKey string, prefix string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(envKey, prefix)), "_", ".")
}

func mapToLowerKeys(m map[string]interface{}) {
	for key, val := range m {
		switch v := val.(type) {
		case map[string]interface{}:
			// nested map: call recursively
			mapToLowerKeys(v)
		case map[interface{}]interface{}:
			// nested map: cast and call recursively
			val = cast.ToStringMap(v)
			mapToLowerKeys(val.(map[string]interface{}))
		}

		lower := strings.ToLower(key)
		if key != lower {
			// remove old key (not lower-cased)
			delete(m, key)
		}

		m[lower] = val
	}
}

// jsonLowerParser implements a JSON parser where all config keys are lower cased.
type jsonLowerParser struct{}

// Unmarshal parses the given JSON bytes.
func (p *jsonLowerParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	mapToLowerKeys(out)

	return out, nil
}

// Marshal marshals the given config map to JSON bytes.
func (p *jsonLowerParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// yamlLowerParser implements a YAML parser where all config keys are lower cased.
type yamlLowerParser struct{}

// Unmarshal parses the given YAML bytes.
func (p *yamlLowerParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	mapToLowerKeys(out)

	return out, nil
}

// Marshal marshals the given config map to YAML bytes.
func (p *yamlLowerParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(o)
}
