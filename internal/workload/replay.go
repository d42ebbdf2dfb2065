package workload

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/stressql/stressql/internal/config"
)

const (
	// systemUser is the engine's internal user; its queries are never replayed.
	systemUser = "$dremio$"

	// successOutcome is the terminal-success job state in replay records.
	successOutcome = "COMPLETED"

	// nonSQLSentinel marks log records that carry no SQL text.
	nonSQLSentinel = "NA"
)

// ddlKeywords are statement prefixes excluded from replay. Matched lowercased
// with a trailing space so column names like "created_at" survive.
var ddlKeywords = []string{
	"create ", "alter ", "drop ", "insert ", "update ",
	"delete ", "grant ", "revoke ", "password ",
}

var (
	limitPattern   = regexp.MustCompile(`(?i)\blimit\s+\d+`)
	contextPattern = regexp.MustCompile(`,\s*`)
)

// LoadReplay ingests a historical-query log (one JSON object per line,
// optionally gzip-compressed, a single file or a directory of files) and
// converts the replayable records into a single-frequency workload.
// limitResults > 0 injects a LIMIT clause into every replayed query,
// replacing an existing one when present.
func LoadReplay(path string, limitResults int) (*config.Workload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay log: %w", err)
	}

	var files []string
	if info.IsDir() {
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading replay directory: %w", err)
		}
		for _, e := range dirEntries {
			if !e.IsDir() {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	} else {
		files = []string{path}
	}

	w := &config.Workload{}
	for _, file := range files {
		if err := appendReplayFile(w, file, limitResults); err != nil {
			return nil, err
		}
	}

	if len(w.Queries) == 0 {
		return nil, fmt.Errorf("no replayable queries found in %s", path)
	}
	return w, nil
}

func appendReplayFile(w *config.Workload, path string, limitResults int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading replay log: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("reading gzip replay log %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	// Query text in the log can run to megabytes.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if tmpl, ok := replayTemplate(line, limitResults); ok {
			w.Queries = append(w.Queries, tmpl)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading replay log %s: %w", path, err)
	}
	return nil
}

// replayTemplate converts one log line into a query template, or reports
// false when the record is filtered out.
func replayTemplate(line string, limitResults int) (config.QueryTemplate, bool) {
	record := gjson.Parse(line)

	text := record.Get("queryText").String()
	if text == "" || text == nonSQLSentinel {
		return config.QueryTemplate{}, false
	}
	if record.Get("username").String() == systemUser {
		return config.QueryTemplate{}, false
	}
	if record.Get("outcome").String() != successOutcome {
		return config.QueryTemplate{}, false
	}

	lower := strings.ToLower(text)
	for _, kw := range ddlKeywords {
		if strings.Contains(lower, kw) {
			return config.QueryTemplate{}, false
		}
	}

	if limitResults > 0 {
		text = injectLimit(text, limitResults)
	}

	queryID := record.Get("queryId").String()
	text = fmt.Sprintf("-- queryId: %s\n%s", queryID, text)

	return config.QueryTemplate{
		QueryText:  text,
		Frequency:  1,
		SQLContext: ParseContext(record.Get("context").String()),
	}, true
}

// injectLimit caps the result set of a replayed query, replacing an existing
// LIMIT clause case-insensitively or appending one.
func injectLimit(sql string, limit int) string {
	clause := fmt.Sprintf("LIMIT %d", limit)
	if limitPattern.MatchString(sql) {
		return limitPattern.ReplaceAllString(sql, clause)
	}
	return sql + " " + clause
}

// ParseContext parses the bracketed, comma-separated context string recorded
// in replay logs ("[a, b]") into a context path. Empty input and "[]" yield
// no context.
func ParseContext(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return contextPattern.Split(s, -1)
}
