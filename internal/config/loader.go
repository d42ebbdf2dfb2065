package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// LoadWorkload reads a workload description from a JSON or YAML file, checks
// it against the workload schema, and runs semantic validation. Any error
// returned here is fatal for the run.
func LoadWorkload(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing workload file %s: %w", path, err)
		}
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("workload file %s: %w", path, err)
	}

	var w Workload
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing workload file %s: %w", path, err)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	return &w, nil
}

// validateSchema checks a JSON document against the embedded workload schema.
func validateSchema(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("workload.json", strings.NewReader(workloadSchema)); err != nil {
		return fmt.Errorf("invalid workload schema: %w", err)
	}
	schema, err := compiler.Compile("workload.json")
	if err != nil {
		return fmt.Errorf("invalid workload schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// yamlToJSON converts a YAML document to JSON so schema validation and
// unmarshalling share one code path.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML rewrites map[interface{}]interface{} values produced by
// older YAML documents into map[string]interface{} so they marshal to JSON.
func normalizeYAML(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, val := range v {
			v[k] = normalizeYAML(val)
		}
		return v
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []interface{}:
		for i, val := range v {
			v[i] = normalizeYAML(val)
		}
		return v
	default:
		return v
	}
}
