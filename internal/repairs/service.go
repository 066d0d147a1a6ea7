package repairs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidInput wraps request validation failures.
var ErrInvalidInput = errors.New("repairs: invalid input")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GenerateJobNumber(ctx context.Context) (string, error)
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	ListJobs(ctx context.Context, req ListJobsRequest) ([]Job, error)
	ListParts(ctx context.Context, jobID uuid.UUID) ([]Part, error)
	ListServices(ctx context.Context, jobID uuid.UUID) ([]Service, error)
	UpdateJob(ctx context.Context, id uuid.UUID, req UpdateJobRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status JobStatus, now time.Time) error
	SetFinalCost(ctx context.Context, id uuid.UUID, finalCost float64) error
	MarkPaid(ctx context.Context, id uuid.UUID, finalCost, laborCost float64, paidAt time.Time) error
	DeleteService(ctx context.Context, serviceID uuid.UUID) error
	InsertServiceLine(ctx context.Context, svc Service) (uuid.UUID, error)
}

// SettingsPort supplies the VAT rate and currency symbol configured for the
// workshop.
type SettingsPort interface {
	VATRate(ctx context.Context) float64
	Currency(ctx context.Context) string
}

// CostService coordinates repair job operations and the invoice cost engine.
type CostService struct {
	repo     RepositoryPort
	settings SettingsPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds a CostService.
func NewService(repo RepositoryPort, settings SettingsPort) *CostService {
	return &CostService{
		repo:     repo,
		settings: settings,
		validate: validator.New(),
		now:      time.Now,
	}
}

// CreateJob opens a new repair job with its planned services. The estimated
// cost rides on the first service line; extra services start at zero so the
// invoice total stays equal to the estimate until real prices are entered.
func (s *CostService) CreateJob(ctx context.Context, req CreateJobRequest) (Job, error) {
	if err := s.validate.Struct(req); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	number, err := s.repo.GenerateJobNumber(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("generate job number: %w", err)
	}

	description := ""
	for i, svc := range req.Services {
		if i > 0 {
			description += ", "
		}
		description += svc.Description
	}

	job := Job{
		JobNumber:     number,
		CustomerID:    req.CustomerID,
		MotorcycleID:  req.MotorcycleID,
		Description:   description,
		Status:        StatusReceived,
		EstimatedCost: req.EstimatedCost,
		PaymentStatus: PaymentUnpaid,
		Notes:         req.Notes,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertJob(ctx, job)
		if err != nil {
			return err
		}
		job.ID = id
		for i, svc := range req.Services {
			price := 0.0
			if i == 0 && req.EstimatedCost != nil {
				price = *req.EstimatedCost
			}
			if _, err := tx.InsertService(ctx, Service{RepairJobID: id, Description: svc.Description, Price: price}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return s.repo.GetJob(ctx, job.ID)
}

// GetJob returns a job with its line items.
func (s *CostService) GetJob(ctx context.Context, id uuid.UUID) (JobWithLines, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return JobWithLines{}, err
	}
	parts, err := s.repo.ListParts(ctx, id)
	if err != nil {
		return JobWithLines{}, err
	}
	services, err := s.repo.ListServices(ctx, id)
	if err != nil {
		return JobWithLines{}, err
	}
	return JobWithLines{Job: job, Parts: parts, Services: services}, nil
}

// ListJobs returns jobs matching the filter.
func (s *CostService) ListJobs(ctx context.Context, req ListJobsRequest) ([]Job, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.ListJobs(ctx, req)
}

// UpdateJob patches editable job fields.
func (s *CostService) UpdateJob(ctx context.Context, id uuid.UUID, req UpdateJobRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.UpdateJob(ctx, id, req)
}

// UpdateStatus moves a job to a new lifecycle status.
func (s *CostService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) error {
	if !req.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}
	return s.repo.UpdateStatus(ctx, id, req.Status, s.now().UTC())
}

// SetFinalCost records the manual total override. Once positive it supersedes
// the computed total everywhere until changed again.
func (s *CostService) SetFinalCost(ctx context.Context, id uuid.UUID, req SetFinalCostRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.SetFinalCost(ctx, id, req.FinalCost)
}

// AddParts attaches parts to a job. Stocked parts snapshot the current sell
// price (unless an explicit price is given) and move stock out in the same
// transaction. Ad-hoc parts need a name and a price and leave stock alone.
func (s *CostService) AddParts(ctx context.Context, jobID uuid.UUID, reqs []AddPartRequest) ([]Part, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: at least one part required", ErrInvalidInput)
	}
	for _, req := range reqs {
		if err := s.validate.Struct(req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if req.StockItemID == nil {
			if req.Name == "" {
				return nil, fmt.Errorf("%w: ad-hoc part needs a name", ErrInvalidInput)
			}
			if req.UnitPrice == nil {
				return nil, fmt.Errorf("%w: ad-hoc part needs a unit price", ErrInvalidInput)
			}
		}
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	added := make([]Part, 0, len(reqs))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, req := range reqs {
			part := Part{RepairJobID: job.ID, StockItemID: req.StockItemID, Name: req.Name, Quantity: req.Quantity}
			if req.UnitPrice != nil {
				part.UnitPrice = *req.UnitPrice
			}
			if req.StockItemID != nil {
				name, sellPrice, err := tx.GetStockItemForUpdate(ctx, *req.StockItemID)
				if err != nil {
					return err
				}
				if part.Name == "" {
					part.Name = name
				}
				if req.UnitPrice == nil {
					part.UnitPrice = sellPrice
				}
				if err := tx.InsertStockMovement(ctx, *req.StockItemID, "out", req.Quantity, "Repair job "+job.JobNumber, "Used in repair"); err != nil {
					return err
				}
				if err := tx.AdjustStockQuantity(ctx, *req.StockItemID, -req.Quantity); err != nil {
					return err
				}
			}
			id, err := tx.InsertPart(ctx, part)
			if err != nil {
				return err
			}
			part.ID = id
			added = append(added, part)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add parts: %w", err)
	}
	return added, nil
}

// RemovePart detaches a part and, for stocked parts, returns the quantity to
// stock in the same transaction.
func (s *CostService) RemovePart(ctx context.Context, partID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.DeletePart(ctx, partID)
		if err != nil {
			return err
		}
		if part.StockItemID == nil {
			return nil
		}
		if err := tx.InsertStockMovement(ctx, *part.StockItemID, "in", part.Quantity, "", "Returned from repair"); err != nil {
			return err
		}
		return tx.AdjustStockQuantity(ctx, *part.StockItemID, part.Quantity)
	})
}

// AddService attaches a service line to a job.
func (s *CostService) AddService(ctx context.Context, jobID uuid.UUID, req AddServiceRequest) (Service, error) {
	if err := s.validate.Struct(req); err != nil {
		return Service{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return Service{}, err
	}
	svc := Service{RepairJobID: jobID, Description: req.Description, Price: req.Price}
	id, err := s.repo.InsertServiceLine(ctx, svc)
	if err != nil {
		return Service{}, fmt.Errorf("add service: %w", err)
	}
	svc.ID = id
	return svc, nil
}

// RemoveService detaches a service line.
func (s *CostService) RemoveService(ctx context.Context, serviceID uuid.UUID) error {
	return s.repo.DeleteService(ctx, serviceID)
}

// InvoiceView is everything the invoice screen needs for one job.
type InvoiceView struct {
	Job          Job       `json:"job"`
	Parts        []Part    `json:"parts"`
	Services     []Service `json:"services"`
	Quote        Quote     `json:"quote"`
	InitialLabor float64   `json:"initial_labor"`
	Currency     string    `json:"currency"`
}

// Invoice computes the invoice view for a job. laborOverride, when non-nil,
// is the labour figure currently edited on screen; otherwise the seeded
// initial labour is used.
func (s *CostService) Invoice(ctx context.Context, jobID uuid.UUID, laborOverride *float64, includeVAT bool) (InvoiceView, error) {
	jl, err := s.GetJob(ctx, jobID)
	if err != nil {
		return InvoiceView{}, err
	}

	hasLines := len(jl.Parts) > 0 || len(jl.Services) > 0
	initial := InitialLabor(jl.Job.LaborCost, hasLines, jl.Job.FinalCost, jl.Job.EstimatedCost)
	labor := initial
	if laborOverride != nil {
		if *laborOverride < 0 {
			return InvoiceView{}, fmt.Errorf("%w: labour cost must not be negative", ErrInvalidInput)
		}
		labor = *laborOverride
	}

	vatRate := s.settings.VATRate(ctx)
	return InvoiceView{
		Job:          jl.Job,
		Parts:        jl.Parts,
		Services:     jl.Services,
		Quote:        BuildQuote(jl.Parts, jl.Services, labor, vatRate, includeVAT),
		InitialLabor: initial,
		Currency:     s.settings.Currency(ctx),
	}, nil
}

// MarkPaid settles a job: the displayed total (with the VAT toggle as chosen
// on screen) is snapshotted into final_cost and the edited labour into
// labor_cost, together with payment status and date. The returned job is
// re-read after the write; nothing is reported as paid until the store
// confirmed the update.
func (s *CostService) MarkPaid(ctx context.Context, jobID uuid.UUID, req MarkPaidRequest) (Job, error) {
	if err := s.validate.Struct(req); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	jl, err := s.GetJob(ctx, jobID)
	if err != nil {
		return Job{}, err
	}

	quote := BuildQuote(jl.Parts, jl.Services, req.LaborCost, s.settings.VATRate(ctx), req.IncludeVAT)
	if err := s.repo.MarkPaid(ctx, jobID, quote.Total, req.LaborCost, s.now().UTC()); err != nil {
		return Job{}, fmt.Errorf("mark paid: %w", err)
	}
	return s.repo.GetJob(ctx, jobID)
}

// TotalOf resolves the authoritative total for a job given its lines, used by
// summary and reporting views.
func TotalOf(job Job, parts []Part, services []Service) float64 {
	return AuthoritativeTotal(job.FinalCost, JobSubtotal(parts, services, job.LaborCost), job.EstimatedCost)
}
