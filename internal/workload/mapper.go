package workload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stressql/stressql/internal/config"
)

// ResolvedQuery is a concrete, fully substituted SQL statement plus the
// context path to execute it under. It is created per dispatch and owned
// solely by the task that executes it.
type ResolvedQuery struct {
	SQL     string
	Context []string
}

// MapQueries turns one pool entry into the burst of resolved queries it
// produces. Group references expand to the group's statements in declared
// order; parameter substitution is applied independently to each statement;
// a configured sequence then yields one query per integer step. Sequence
// expansion does not attach the template's context path.
func MapQueries(tmpl *config.QueryTemplate, pool *Pool) ([]ResolvedQuery, error) {
	var raw []string
	if tmpl.QueryGroup != "" {
		group, ok := pool.Group(tmpl.QueryGroup)
		if !ok {
			return nil, fmt.Errorf("unknown query group '%s'", tmpl.QueryGroup)
		}
		raw = group.Queries
	} else {
		raw = []string{tmpl.QueryText}
	}

	var resolved []ResolvedQuery
	for _, statement := range raw {
		sql := ResolveParameters(statement, tmpl.Parameters)

		if seq := tmpl.Sequence; seq != nil {
			step := seq.Step
			if step < 1 {
				step = 1
			}
			token := ":" + seq.Name
			for i := seq.Start; i <= seq.End; i += step {
				resolved = append(resolved, ResolvedQuery{
					SQL: strings.ReplaceAll(sql, token, strconv.Itoa(i)),
				})
			}
			continue
		}

		resolved = append(resolved, ResolvedQuery{SQL: sql, Context: tmpl.SQLContext})
	}

	return resolved, nil
}
