package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/repairs"
)

const topPartsLimit = 5

// RepositoryPort is the read surface the service aggregates over.
type RepositoryPort interface {
	PaidJobTotals(ctx context.Context, from, to time.Time) ([]JobTotalsRow, error)
	OutstandingJobTotals(ctx context.Context) ([]JobTotalsRow, error)
	JobStatusCounts(ctx context.Context, from, to time.Time) (map[string]int, error)
	SalesTotals(ctx context.Context, from, to time.Time) (count int, revenue float64, err error)
	MotoSalesTotals(ctx context.Context, from, to time.Time) (count int, revenue float64, err error)
	TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopPart, error)
	LowStockCount(ctx context.Context) (int, error)
}

// Cache is the subset of the redis client the service needs. Summaries are
// cached as JSON because the loads fan out over several aggregate queries.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Service builds dashboard summaries and CSV exports.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	cache  Cache
	ttl    time.Duration
}

// NewService constructs the service. cache may be nil, in which case every
// summary is computed fresh.
func NewService(logger *slog.Logger, repo RepositoryPort, cache Cache, ttl time.Duration) *Service {
	return &Service{logger: logger, repo: repo, cache: cache, ttl: ttl}
}

func cacheKey(from, to time.Time) string {
	return fmt.Sprintf("reports:summary:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Summary assembles the dashboard for the period, serving from cache when a
// fresh copy exists.
func (s *Service) Summary(ctx context.Context, period Period) (Summary, error) {
	key := cacheKey(period.From, period.To)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached Summary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	summary, err := s.build(ctx, period)
	if err != nil {
		return Summary{}, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("reports: cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
	return summary, nil
}

func (s *Service) build(ctx context.Context, period Period) (Summary, error) {
	summary := Summary{Period: period}

	var (
		paid        []JobTotalsRow
		outstanding []JobTotalsRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		paid, err = s.repo.PaidJobTotals(ctx, period.From, period.To)
		return err
	})
	g.Go(func() error {
		var err error
		outstanding, err = s.repo.OutstandingJobTotals(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.JobsByStatus, err = s.repo.JobStatusCounts(ctx, period.From, period.To)
		return err
	})
	g.Go(func() error {
		var err error
		summary.SalesCount, summary.SalesRevenue, err = s.repo.SalesTotals(ctx, period.From, period.To)
		return err
	})
	g.Go(func() error {
		var err error
		summary.MotoSalesCount, summary.MotoSalesRevenue, err = s.repo.MotoSalesTotals(ctx, period.From, period.To)
		return err
	})
	g.Go(func() error {
		var err error
		summary.TopParts, err = s.repo.TopParts(ctx, period.From, period.To, topPartsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		summary.LowStockItems, err = s.repo.LowStockCount(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("reports: build summary: %w", err)
	}

	for _, row := range paid {
		summary.RepairRevenue += rowTotal(row)
	}
	for _, row := range outstanding {
		summary.Outstanding += rowTotal(row)
	}
	summary.PaidJobs = len(paid)
	summary.TotalRevenue = summary.RepairRevenue + summary.SalesRevenue + summary.MotoSalesRevenue
	if summary.PaidJobs > 0 {
		summary.AvgJobValue = summary.RepairRevenue / float64(summary.PaidJobs)
	}
	return summary, nil
}

// rowTotal resolves a job's displayed total from the persisted columns,
// matching what the invoice shows for the same job.
func rowTotal(row JobTotalsRow) float64 {
	var labor float64
	if row.LaborCost != nil {
		labor = *row.LaborCost
	}
	return repairs.AuthoritativeTotal(row.FinalCost, row.LineSubtotal+labor, row.EstimatedCost)
}

var csvPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// SummaryCSV renders the period summary as a CSV document. Money columns are
// printed with thousands separators.
func (s *Service) SummaryCSV(ctx context.Context, period Period) ([]byte, error) {
	summary, err := s.Summary(ctx, period)
	if err != nil {
		return nil, err
	}

	buf := csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer csvPool.Put(buf)

	p := message.NewPrinter(language.BritishEnglish)
	money := func(v float64) string { return p.Sprintf("%.2f", v) }

	w := csv.NewWriter(buf)
	records := [][]string{
		{"metric", "value"},
		{"period_from", period.From.Format("2006-01-02")},
		{"period_to", period.To.Format("2006-01-02")},
		{"repair_revenue", money(summary.RepairRevenue)},
		{"sales_revenue", money(summary.SalesRevenue)},
		{"moto_sales_revenue", money(summary.MotoSalesRevenue)},
		{"total_revenue", money(summary.TotalRevenue)},
		{"outstanding", money(summary.Outstanding)},
		{"paid_jobs", p.Sprintf("%d", summary.PaidJobs)},
		{"avg_job_value", money(summary.AvgJobValue)},
		{"sales_count", p.Sprintf("%d", summary.SalesCount)},
		{"moto_sales_count", p.Sprintf("%d", summary.MotoSalesCount)},
		{"low_stock_items", p.Sprintf("%d", summary.LowStockItems)},
	}
	statuses := make([]string, 0, len(summary.JobsByStatus))
	for status := range summary.JobsByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		records = append(records, []string{"jobs_" + status, p.Sprintf("%d", summary.JobsByStatus[status])})
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("reports: write csv: %w", err)
	}

	if len(summary.TopParts) > 0 {
		buf.WriteString("\n")
		if err := w.Write([]string{"part", "quantity", "revenue"}); err != nil {
			return nil, fmt.Errorf("reports: write csv: %w", err)
		}
		for _, tp := range summary.TopParts {
			rec := []string{tp.Name, p.Sprintf("%d", tp.Quantity), money(tp.Revenue)}
			if err := w.Write(rec); err != nil {
				return nil, fmt.Errorf("reports: write csv: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("reports: write csv: %w", err)
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
