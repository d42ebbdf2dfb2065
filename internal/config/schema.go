package config

// workloadSchema is the JSON Schema every declarative workload document is
// checked against before unmarshalling. YAML workloads are converted to JSON
// first so both shapes go through the same check.
const workloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["queries"],
  "properties": {
    "queries": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "query": {"type": "string"},
          "queryGroup": {"type": "string"},
          "frequency": {"type": "integer"},
          "parameters": {
            "type": "object",
            "additionalProperties": {"type": "array"}
          },
          "sqlContext": {
            "type": "array",
            "items": {"type": "string"}
          },
          "sequence": {
            "type": "object",
            "required": ["name", "start", "end"],
            "properties": {
              "name": {"type": "string"},
              "start": {"type": "integer"},
              "end": {"type": "integer"},
              "step": {"type": "integer"}
            }
          }
        }
      }
    },
    "queryGroups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "queries"],
        "properties": {
          "name": {"type": "string"},
          "queries": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`
