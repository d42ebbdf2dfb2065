package workload

import (
	"fmt"
	"math/rand"
	"regexp"
)

// paramPattern matches :name parameter tokens in SQL text.
var paramPattern = regexp.MustCompile(`:(\w+)`)

// ResolveParameters substitutes :name tokens in sql using the configured
// candidate lists. For each distinct parameter name, exactly one candidate is
// drawn uniformly at random and every occurrence of that token is replaced
// with the same drawn value. Repeated tokens deliberately share one draw;
// downstream workloads depend on this. Tokens without a configured candidate
// list are left untouched.
func ResolveParameters(sql string, params map[string][]interface{}) string {
	if len(params) == 0 {
		return sql
	}

	drawn := make(map[string]string)
	return paramPattern.ReplaceAllStringFunc(sql, func(token string) string {
		name := token[1:]
		if v, ok := drawn[name]; ok {
			return v
		}
		candidates, ok := params[name]
		if !ok || len(candidates) == 0 {
			return token
		}
		v := fmt.Sprint(candidates[rand.Intn(len(candidates))])
		drawn[name] = v
		return v
	})
}
