package config

// Workload is the root of a declarative workload description.
//
// Example JSON:
//
//	{
//	  "queries": [
//	    {"query": "SELECT * FROM t WHERE id = :id", "frequency": 5,
//	     "parameters": {"id": [1, 2, 3]}},
//	    {"queryGroup": "schemaops", "frequency": 1}
//	  ],
//	  "queryGroups": [
//	    {"name": "schemaops", "queries": ["DROP TABLE IF EXISTS x", "CREATE TABLE x (a INT)"]}
//	  ]
//	}
type Workload struct {
	// Queries are the weighted query templates making up the workload
	Queries []QueryTemplate `json:"queries" yaml:"queries"`

	// QueryGroups are named lists of statements referenced by templates
	QueryGroups []QueryGroup `json:"queryGroups,omitempty" yaml:"queryGroups,omitempty"`
}

// QueryTemplate is one configured, not-yet-executed query definition.
// Exactly one of QueryText or QueryGroup must be set.
type QueryTemplate struct {
	// QueryText is literal SQL, possibly containing :name parameter tokens
	QueryText string `json:"query,omitempty" yaml:"query,omitempty"`

	// QueryGroup names a QueryGroup whose statements run as one unit
	QueryGroup string `json:"queryGroup,omitempty" yaml:"queryGroup,omitempty"`

	// Frequency is the selection weight; values below 1 are clamped to 1
	Frequency int `json:"frequency,omitempty" yaml:"frequency,omitempty"`

	// Parameters maps :name tokens to candidate values drawn at random
	Parameters map[string][]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// SQLContext is the catalog/schema path the query executes under
	SQLContext []string `json:"sqlContext,omitempty" yaml:"sqlContext,omitempty"`

	// Sequence expands the query once per integer in [Start, End]
	Sequence *Sequence `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// QueryGroup is a named, ordered list of literal SQL statements.
type QueryGroup struct {
	Name    string   `json:"name" yaml:"name"`
	Queries []string `json:"queries" yaml:"queries"`
}

// Sequence describes an integer range substituted into a query, one
// resolved query per step.
type Sequence struct {
	// Name is the :name token replaced with each integer value
	Name string `json:"name" yaml:"name"`

	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// Step is the increment between values; values below 1 are treated as 1
	Step int `json:"step,omitempty" yaml:"step,omitempty"`
}
