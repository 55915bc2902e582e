// Package rows maps spreadsheet-style rows through the simplified match
// status check and writes the result back into each row.
package rows

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/okian/tourcheck/internal/domain/batch"
	"github.com/okian/tourcheck/internal/domain/match"
	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
)

// Defaults for row processing.
const (
	DefaultHomeField   = "homeopponent"
	DefaultAwayField   = "awayopponent"
	DefaultStatusField = "WTA?"
	DefaultMaxRows     = 200
	DefaultBatchSize   = 10
	DefaultBatchPause  = 100 * time.Millisecond
)

// Row is one spreadsheet row keyed by column name.
type Row map[string]any

// Summary counts the outcome of a ProcessRows call.
type Summary struct {
	TotalProcessed     int `json:"totalProcessed"`
	EligibleMatches    int `json:"eligibleMatches"`
	NonEligibleMatches int `json:"nonEligibleMatches"`
}

// Statuser is the simplified status check.
type Statuser interface {
	Status(ctx context.Context, home, away string) string
}

// Processor fills the status column of rows.
type Processor struct {
	statuser    Statuser
	homeField   string
	awayField   string
	statusField string
	maxRows     int
	batch       batch.Config
	log         logger.Logger
}

// New builds a processor with the default column names.
func New(s Statuser, opts ...Option) *Processor {
	p := &Processor{
		statuser:    s,
		homeField:   DefaultHomeField,
		awayField:   DefaultAwayField,
		statusField: DefaultStatusField,
		maxRows:     DefaultMaxRows,
		batch:       batch.Config{Size: DefaultBatchSize, Pause: DefaultBatchPause, Name: "rows"},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.GetOr(logger.Discard()).Named("rows")
	}
	return p
}

// StatusField is the column ProcessRows writes.
func (p *Processor) StatusField() string { return p.statusField }

// ProcessRows returns a copy of every row with the status column set, in
// input order. More than the configured maximum is a validation error and
// nothing is looked up.
func (p *Processor) ProcessRows(ctx context.Context, in []Row) ([]Row, Summary, error) {
	const op = "rows.process"
	if len(in) > p.maxRows {
		return nil, Summary{}, model.Validation(op, fmt.Sprintf("Maximum %d records per request", p.maxRows))
	}

	results := batch.Run(ctx, p.batch, in, func(ctx context.Context, r Row) (string, error) {
		return p.statuser.Status(ctx, field(r, p.homeField), field(r, p.awayField)), nil
	})

	out := make([]Row, len(in))
	var sum Summary
	for i, res := range results {
		if res.Err != nil {
			return nil, Summary{}, model.Wrap(op, res.Err)
		}
		row := make(Row, len(in[i])+1)
		maps.Copy(row, in[i])
		row[p.statusField] = res.Value
		out[i] = row

		sum.TotalProcessed++
		if res.Value == match.StatusEligible {
			sum.EligibleMatches++
		} else {
			sum.NonEligibleMatches++
		}
	}
	p.log.Debug(ctx, "rows processed", logger.Int("total", sum.TotalProcessed), logger.Int("eligible", sum.EligibleMatches))
	return out, sum, nil
}

func field(r Row, name string) string {
	s, _ := r[name].(string)
	return s
}
