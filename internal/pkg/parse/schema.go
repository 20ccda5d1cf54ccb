package parse

import (
	"fmt"

	"saber/config"
)

// Semantic columns the engine requires. The scheduler's accounting log is
// positional, so the external schema config maps positions to these names;
// extra site-specific columns are allowed and ignored.
var requiredColumns = []string{
	"JobID", "JobName", "UserName", "UserGroup", "Queue", "JobStatus",
	"Nodes", "Cores", "Memory", "RunTimeSeconds", "ElapseLimiteSecond",
	"QueDateYear", "QueDateMonth", "QueDateDay",
	"QueDateHour", "QueDateMinute", "QueDateSecond",
	"StartDateYear", "StartDateMonth", "StartDateDay",
	"StartDateHour", "StartDateMinute", "StartDateSecond",
}

// Schema is a validated, positional description of one accounting log format.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema validates the configured column list: no duplicate names, every
// required semantic column present. Validation happens once at load time so
// parsing never has to guess.
func NewSchema(cfg config.LogSchema) (*Schema, error) {
	idx := make(map[string]int, len(cfg.Columns))
	for i, name := range cfg.Columns {
		if name == "" {
			return nil, fmt.Errorf("log schema: empty column name at position %d", i)
		}
		if _, dup := idx[name]; dup {
			return nil, fmt.Errorf("log schema: duplicate column %q", name)
		}
		idx[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("log schema: missing required column %q", name)
		}
	}
	return &Schema{columns: cfg.Columns, index: idx}, nil
}

// Fields returns the number of whitespace-separated fields per record.
func (s *Schema) Fields() int { return len(s.columns) }

func (s *Schema) pos(name string) int { return s.index[name] }
