package symbols

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
)

// Resolver validates user supplied tickers against the external search capability
type Resolver struct {
	Searcher         domain.SymbolSearcher
	AllowedExchanges map[string]struct{}
	Timeout          time.Duration
	Logger           *logger.Logger
}

// NewResolver creates a new Resolver instance
func NewResolver(searcher domain.SymbolSearcher, allowedExchanges []string, timeout time.Duration, log *logger.Logger) *Resolver {
	allowed := make(map[string]struct{}, len(allowedExchanges))
	for _, ex := range allowedExchanges {
		allowed[strings.ToUpper(strings.TrimSpace(ex))] = struct{}{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{
		Searcher:         searcher,
		AllowedExchanges: allowed,
		Timeout:          timeout,
		Logger:           log,
	}
}

// Resolve returns the canonical symbol for raw, or false when nothing acceptable matches.
// Provider failures are logged and reported as not found.
func (r *Resolver) Resolve(ctx context.Context, raw string) (domain.Symbol, bool) {
	candidates := r.Search(ctx, raw)
	if len(candidates) == 0 {
		return domain.Symbol{}, false
	}
	return candidates[0], true
}

// Search returns the acceptable candidates for query, best first
// Logic:
//   - keep EQUITY instruments listed on an allowed exchange
//   - an exact (case-insensitive) ticker match ranks first
//   - the rest are ordered by descending provider score
func (r *Resolver) Search(ctx context.Context, query string) []domain.Symbol {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Symbol{}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	matches, err := r.Searcher.Search(ctx, query)
	if err != nil {
		r.Logger.Warning("symbol search for %q failed: %v", query, err)
		return []domain.Symbol{}
	}

	ranked := r.rank(query, matches)
	result := make([]domain.Symbol, 0, len(ranked))
	for _, m := range ranked {
		result = append(result, m.Canonical())
	}
	return result
}

func (r *Resolver) rank(query string, matches []domain.SymbolMatch) []domain.SymbolMatch {
	filtered := make([]domain.SymbolMatch, 0, len(matches))
	for _, m := range matches {
		if m.QuoteType != domain.InstrumentTypeEquity {
			continue
		}
		if _, ok := r.AllowedExchanges[strings.ToUpper(m.Exchange)]; !ok {
			continue
		}
		filtered = append(filtered, m)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		iExact := strings.EqualFold(filtered[i].Symbol, query)
		jExact := strings.EqualFold(filtered[j].Symbol, query)
		if iExact != jExact {
			return iExact
		}
		return filtered[i].Score > filtered[j].Score
	})

	return filtered
}
