package risk

import (
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/atlasfin/loanengine/internal/model"
)

// Config tunes the chunked assignment path.
type Config struct {
	// Workers is the chunk worker count.
	Workers int
	// Threshold is the bucket size above which chunking kicks in.
	Threshold int
	// MinChunkSize bounds the chunk size from below.
	MinChunkSize int
}

// DefaultConfig returns the default assigner configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      runtime.NumCPU(),
		Threshold:    1000,
		MinChunkSize: 100,
	}
}

// Assigner attaches risk curves to priced loans.
type Assigner struct {
	cfg    Config
	logger *slog.Logger
}

// NewAssigner creates an Assigner with the given configuration.
func NewAssigner(cfg Config, logger *slog.Logger) *Assigner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MinChunkSize < 1 {
		cfg.MinChunkSize = 1
	}
	return &Assigner{cfg: cfg, logger: logger}
}

// Assign fills RiskRates for one bucket's loans. Buckets above the
// threshold are split into index-range chunks processed by a fixed worker
// pool; each worker writes its chunk's positions directly, so output order
// always matches input order and both paths produce identical results.
func (a *Assigner) Assign(bucket model.Bucket, loans []model.PricedLoan, lookup *Lookup) []model.PricedLoan {
	a.logMissingTypes(bucket, loans, lookup)

	if len(loans) > a.cfg.Threshold {
		a.logger.Info("Assigning risk rates in parallel",
			slog.String("bucket", string(bucket)),
			slog.Int("loan_count", len(loans)),
			slog.Int("workers", a.cfg.Workers),
		)
		return a.assignChunked(loans, lookup)
	}

	a.logger.Info("Assigning risk rates",
		slog.String("bucket", string(bucket)),
		slog.Int("loan_count", len(loans)),
	)
	out := make([]model.PricedLoan, len(loans))
	assignRange(out, loans, 0, len(loans), lookup)
	return out
}

func (a *Assigner) assignChunked(loans []model.PricedLoan, lookup *Lookup) []model.PricedLoan {
	chunkSize := len(loans) / a.cfg.Workers
	if chunkSize < a.cfg.MinChunkSize {
		chunkSize = a.cfg.MinChunkSize
	}

	type span struct{ start, end int }
	jobs := make(chan span)
	out := make([]model.PricedLoan, len(loans))

	var wg sync.WaitGroup
	for w := 0; w < a.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				assignRange(out, loans, s.start, s.end, lookup)
			}
		}()
	}

	for start := 0; start < len(loans); start += chunkSize {
		end := start + chunkSize
		if end > len(loans) {
			end = len(loans)
		}
		jobs <- span{start, end}
	}
	close(jobs)
	wg.Wait()

	return out
}

// assignRange fills out[start:end] from loans[start:end]. Chunks never
// overlap, so workers write disjoint positions.
func assignRange(out, loans []model.PricedLoan, start, end int, lookup *Lookup) {
	for i := start; i < end; i++ {
		out[i] = loans[i]
		out[i].RiskRates = riskCurve(loans[i].Loan, lookup)
	}
}

// riskCurve filters the loan type's series to dates on or before maturity.
// A type absent from the lookup yields an empty curve; a missing maturity
// keeps the whole series.
func riskCurve(l model.Loan, lookup *Lookup) model.RiskCurve {
	entry, ok := lookup.Get(strings.TrimSpace(l.Type))
	if !ok {
		return model.EmptyRiskCurve()
	}
	if l.Maturity == nil {
		return entry
	}

	n := 0
	for n < len(entry.Dates) && entry.Dates[n].OnOrBefore(*l.Maturity) {
		n++
	}
	return model.RiskCurve{
		Dates:      entry.Dates[:n],
		CostOfRisk: entry.CostOfRisk[:n],
		Prepayment: entry.Prepayment[:n],
	}
}

func (a *Assigner) logMissingTypes(bucket model.Bucket, loans []model.PricedLoan, lookup *Lookup) {
	missing := map[string]bool{}
	for _, l := range loans {
		loanType := strings.TrimSpace(l.Type)
		if _, ok := lookup.Get(loanType); !ok {
			missing[loanType] = true
		}
	}
	for loanType := range missing {
		a.logger.Warn("Loan type missing from the risk tables",
			slog.String("bucket", string(bucket)),
			slog.String("loan_type", loanType),
		)
	}
}
