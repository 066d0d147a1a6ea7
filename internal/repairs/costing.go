package repairs

// Quote is the cost breakdown of a repair job for one invoice view.
type Quote struct {
	PartsTotal    float64 `json:"parts_total"`
	ServicesTotal float64 `json:"services_total"`
	Labor         float64 `json:"labor"`
	Subtotal      float64 `json:"subtotal"`
	VATRate       float64 `json:"vat_rate"`
	VAT           float64 `json:"vat"`
	Total         float64 `json:"total"`
	IncludesVAT   bool    `json:"includes_vat"`
}

// BuildQuote computes the invoice breakdown for a job's current lines.
// Subtotal is parts + services + labour; VAT is applied on top only when the
// toggle is on. The toggle is a presentation-time choice and is never stored.
func BuildQuote(parts []Part, services []Service, labor, vatRatePercent float64, includeVAT bool) Quote {
	q := Quote{VATRate: vatRatePercent, IncludesVAT: includeVAT, Labor: labor}
	for _, p := range parts {
		q.PartsTotal += float64(p.Quantity) * p.UnitPrice
	}
	for _, s := range services {
		q.ServicesTotal += s.Price
	}
	q.Subtotal = q.PartsTotal + q.ServicesTotal + q.Labor
	if includeVAT {
		q.VAT = q.Subtotal * (vatRatePercent / 100)
	}
	q.Total = q.Subtotal + q.VAT
	return q
}

// AuthoritativeTotal resolves the single total used by summaries and reports.
// A positive manual final cost always wins; otherwise the computed subtotal
// (without VAT); otherwise the rough estimate taken at intake. A job with no
// lines, no labour, no override and no estimate totals zero.
func AuthoritativeTotal(finalCost *float64, subtotal float64, estimatedCost *float64) float64 {
	if finalCost != nil && *finalCost > 0 {
		return *finalCost
	}
	if subtotal > 0 {
		return subtotal
	}
	if estimatedCost != nil {
		return *estimatedCost
	}
	return 0
}

// JobSubtotal computes parts + services + labour for a job, the input to
// AuthoritativeTotal.
func JobSubtotal(parts []Part, services []Service, laborCost *float64) float64 {
	var labor float64
	if laborCost != nil {
		labor = *laborCost
	}
	q := BuildQuote(parts, services, labor, 0, false)
	return q.Subtotal
}

// InitialLabor seeds the editable labour field when an invoice is opened.
// With no structured lines at all, a previously finalised or estimated total
// is surfaced as labour so the invoice is not blank. This only affects the
// value shown; nothing is persisted until the job is saved or marked paid.
func InitialLabor(laborCost *float64, hasLines bool, finalCost, estimatedCost *float64) float64 {
	if laborCost != nil && *laborCost > 0 {
		return *laborCost
	}
	if !hasLines {
		if finalCost != nil && *finalCost > 0 {
			return *finalCost
		}
		if estimatedCost != nil && *estimatedCost > 0 {
			return *estimatedCost
		}
	}
	return 0
}
