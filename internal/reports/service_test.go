package reports

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	paid        []JobTotalsRow
	outstanding []JobTotalsRow
	statuses    map[string]int
	salesCount  int
	salesTotal  float64
	motoCount   int
	motoTotal   float64
	topParts    []TopPart
	lowStock    int

	paidCalls int
}

func (m *mockRepo) PaidJobTotals(ctx context.Context, from, to time.Time) ([]JobTotalsRow, error) {
	m.paidCalls++
	return m.paid, nil
}

func (m *mockRepo) OutstandingJobTotals(ctx context.Context) ([]JobTotalsRow, error) {
	return m.outstanding, nil
}

func (m *mockRepo) JobStatusCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return m.statuses, nil
}

func (m *mockRepo) SalesTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	return m.salesCount, m.salesTotal, nil
}

func (m *mockRepo) MotoSalesTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	return m.motoCount, m.motoTotal, nil
}

func (m *mockRepo) TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopPart, error) {
	return m.topParts, nil
}

func (m *mockRepo) LowStockCount(ctx context.Context) (int, error) {
	return m.lowStock, nil
}

func f64(v float64) *float64 { return &v }

func testPeriod() Period {
	return Period{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, repo RepositoryPort) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, client, time.Minute)
}

func TestSummaryAggregates(t *testing.T) {
	repo := &mockRepo{
		paid: []JobTotalsRow{
			{FinalCost: f64(120)},
			{LineSubtotal: 55, LaborCost: f64(25)},
			{EstimatedCost: f64(40)},
		},
		outstanding: []JobTotalsRow{{FinalCost: f64(90)}},
		statuses:    map[string]int{"received": 2, "delivered": 3},
		salesCount:  4,
		salesTotal:  300,
		motoCount:   1,
		motoTotal:   1500,
		topParts:    []TopPart{{Name: "Chain kit", Quantity: 3, Revenue: 240}},
		lowStock:    2,
	}
	svc := newTestService(t, repo)

	summary, err := svc.Summary(context.Background(), testPeriod())
	require.NoError(t, err)

	require.Equal(t, 240.0, summary.RepairRevenue)
	require.Equal(t, 300.0, summary.SalesRevenue)
	require.Equal(t, 1500.0, summary.MotoSalesRevenue)
	require.Equal(t, 2040.0, summary.TotalRevenue)
	require.Equal(t, 90.0, summary.Outstanding)
	require.Equal(t, 3, summary.PaidJobs)
	require.Equal(t, 80.0, summary.AvgJobValue)
	require.Equal(t, 4, summary.SalesCount)
	require.Equal(t, 1, summary.MotoSalesCount)
	require.Equal(t, 2, summary.LowStockItems)
	require.Equal(t, 3, summary.JobsByStatus["delivered"])
	require.Len(t, summary.TopParts, 1)
}

func TestSummaryServedFromCache(t *testing.T) {
	repo := &mockRepo{paid: []JobTotalsRow{{FinalCost: f64(50)}}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Summary(ctx, testPeriod())
	require.NoError(t, err)
	require.Equal(t, 1, repo.paidCalls)

	second, err := svc.Summary(ctx, testPeriod())
	require.NoError(t, err)
	require.Equal(t, 1, repo.paidCalls)
	require.Equal(t, first.RepairRevenue, second.RepairRevenue)
}

func TestSummaryWithoutCache(t *testing.T) {
	repo := &mockRepo{paid: []JobTotalsRow{{FinalCost: f64(50)}}}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, nil, 0)
	ctx := context.Background()

	_, err := svc.Summary(ctx, testPeriod())
	require.NoError(t, err)
	_, err = svc.Summary(ctx, testPeriod())
	require.NoError(t, err)
	require.Equal(t, 2, repo.paidCalls)
}

func TestRowTotalFallbackChain(t *testing.T) {
	require.Equal(t, 150.0, rowTotal(JobTotalsRow{FinalCost: f64(150), LineSubtotal: 35, EstimatedCost: f64(20)}))
	require.Equal(t, 60.0, rowTotal(JobTotalsRow{LineSubtotal: 35, LaborCost: f64(25), EstimatedCost: f64(20)}))
	require.Equal(t, 20.0, rowTotal(JobTotalsRow{EstimatedCost: f64(20)}))
	require.Equal(t, 0.0, rowTotal(JobTotalsRow{}))
}

func TestSummaryCSV(t *testing.T) {
	repo := &mockRepo{
		paid:     []JobTotalsRow{{FinalCost: f64(1234.5)}},
		statuses: map[string]int{"received": 2, "in_progress": 1, "delivered": 3},
		topParts: []TopPart{{Name: "Brake pads", Quantity: 2, Revenue: 60}},
	}
	svc := newTestService(t, repo)

	doc, err := svc.SummaryCSV(context.Background(), testPeriod())
	require.NoError(t, err)

	out := string(doc)
	require.Contains(t, out, "metric,value")
	require.Contains(t, out, `"1,234.50"`)
	require.Contains(t, out, "part,quantity,revenue")
	require.Contains(t, out, "Brake pads,2,60.00")

	// Status rows come out alphabetically so repeat exports diff cleanly.
	require.Contains(t, out, "jobs_delivered,3\njobs_in_progress,1\njobs_received,2\n")
}
