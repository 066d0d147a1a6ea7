package reports

import "time"

// Period is the reporting window, inclusive of From, exclusive of To.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TopPart is one row of the best-selling parts table.
type TopPart struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// Summary is the workshop dashboard for one period. Repair revenue counts
// paid jobs by payment date using the same total the invoice shows; the
// outstanding figure is the authoritative total of delivered-but-unpaid
// jobs.
type Summary struct {
	Period           Period         `json:"period"`
	RepairRevenue    float64        `json:"repair_revenue"`
	SalesRevenue     float64        `json:"sales_revenue"`
	MotoSalesRevenue float64        `json:"moto_sales_revenue"`
	TotalRevenue     float64        `json:"total_revenue"`
	PaidJobs         int            `json:"paid_jobs"`
	AvgJobValue      float64        `json:"avg_job_value"`
	Outstanding      float64        `json:"outstanding"`
	JobsByStatus     map[string]int `json:"jobs_by_status"`
	TopParts         []TopPart      `json:"top_parts"`
	SalesCount       int            `json:"sales_count"`
	MotoSalesCount   int            `json:"moto_sales_count"`
	LowStockItems    int            `json:"low_stock_items"`
}
