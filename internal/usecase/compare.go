package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"VolCast/internal/domain/models"
	"VolCast/internal/services/volatility"
	"VolCast/pkg/logger"
)

const compareTimeout = 30 * time.Second

// Compare analyzes several tokens over the same window in parallel. Each
// token gets a detached session so named session state is untouched.
// Per-token failures land in the entry's error slot; the report itself only
// fails when the token list is empty.
func (uc *AnalysisUseCase) Compare(ctx context.Context, tokens []string, days int) (*models.ComparisonReport, error) {
	seen := make(map[string]bool, len(tokens))
	cleaned := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = NormalizeToken(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: no tokens to compare", volatility.ErrInvalidParameter)
	}
	if days == 0 {
		days = uc.defaults.Days
	}

	ctx, cancel := context.WithTimeout(ctx, compareTimeout)
	defer cancel()

	start := time.Now()

	type item struct {
		idx   int
		entry models.ComparisonEntry
	}
	ch := make(chan item, len(cleaned))
	var wg sync.WaitGroup

	for i, token := range cleaned {
		wg.Add(1)
		go func(idx int, token string) {
			defer wg.Done()
			entry := models.ComparisonEntry{Token: token}
			s := uc.sessions.NewSession()
			if _, err := s.Ensure(ctx, token, days); err != nil {
				entry.Err = err.Error()
				ch <- item{idx, entry}
				return
			}
			vols, err := s.Volatility()
			if err != nil {
				entry.Err = err.Error()
				ch <- item{idx, entry}
				return
			}
			risk, err := s.RiskLevel()
			if err != nil {
				entry.Err = err.Error()
				ch <- item{idx, entry}
				return
			}
			entry.CurrentVolatility = vols.Last()
			entry.RiskLevel = risk
			ch <- item{idx, entry}
		}(i, token)
	}

	go func() { wg.Wait(); close(ch) }()

	entries := make([]models.ComparisonEntry, len(cleaned))
	failed := 0
	for it := range ch {
		entries[it.idx] = it.entry
		if it.entry.Err != "" {
			failed++
		}
	}

	uc.metrics.RecordCommand("compare")
	uc.metrics.RecordLatency("compare", time.Since(start).Seconds())
	uc.log.Info("comparison complete",
		logger.Int("tokens", len(cleaned)),
		logger.Int("failed", failed),
		logger.Int("days", days))

	return &models.ComparisonReport{
		Days:        days,
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
