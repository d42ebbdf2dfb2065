package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a workload validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the semantic invariants of a workload: query groups have
// unique names, every template carries exactly one of query/queryGroup, and
// group references resolve. Violations are configuration errors raised before
// any query executes.
func (w *Workload) Validate() error {
	errs := &ValidationErrors{}

	groups := make(map[string]bool, len(w.QueryGroups))
	for i, g := range w.QueryGroups {
		field := fmt.Sprintf("queryGroups[%d]", i)
		if g.Name == "" {
			errs.Add(field+".name", "group name is required")
			continue
		}
		if groups[g.Name] {
			errs.Add(field+".name", fmt.Sprintf("duplicate query group name '%s'", g.Name))
		}
		groups[g.Name] = true
		if len(g.Queries) == 0 {
			errs.Add(field+".queries", "group must contain at least one query")
		}
	}

	if len(w.Queries) == 0 {
		errs.Add("queries", "workload must contain at least one query")
	}

	for i, q := range w.Queries {
		field := fmt.Sprintf("queries[%d]", i)
		switch {
		case q.QueryText != "" && q.QueryGroup != "":
			errs.Add(field, "query and queryGroup are mutually exclusive")
		case q.QueryText == "" && q.QueryGroup == "":
			errs.Add(field, "either query or queryGroup is required")
		case q.QueryGroup != "" && !groups[q.QueryGroup]:
			errs.Add(field+".queryGroup", fmt.Sprintf("unknown query group '%s'", q.QueryGroup))
		}
		if q.Sequence != nil {
			if q.Sequence.Name == "" {
				errs.Add(field+".sequence.name", "sequence name is required")
			}
			if q.Sequence.End < q.Sequence.Start {
				errs.Add(field+".sequence", "sequence end must not be below start")
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
