package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("whatsapp: invalid input")

// ServiceRepository is the storage surface of the service on top of what
// the engine needs.
type ServiceRepository interface {
	EngineRepository
	GetTemplate(ctx context.Context, id uuid.UUID) (Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	CreateTemplate(ctx context.Context, t Template) (uuid.UUID, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, limit int) ([]Message, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	MessageStats(ctx context.Context, since time.Time) (Stats, error)
}

// Service manages templates, the message log and automation runs.
type Service struct {
	repo     ServiceRepository
	engine   *Engine
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo ServiceRepository, engine *Engine) *Service {
	return &Service{repo: repo, engine: engine, validate: validator.New(), now: time.Now}
}

func (s *Service) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (Template, error) {
	if err := s.validate.Struct(req); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id, err := s.repo.CreateTemplate(ctx, Template{
		Name:     req.Name,
		Category: req.Category,
		Body:     req.Body,
		Active:   req.Active,
	})
	if err != nil {
		return Template{}, err
	}
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context) ([]Template, error) {
	return s.repo.ListTemplates(ctx)
}

func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (Template, error) {
	if err := s.validate.Struct(req); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.UpdateTemplate(ctx, id, req); err != nil {
		return Template{}, err
	}
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTemplate(ctx, id)
}

func (s *Service) Messages(ctx context.Context, limit int) ([]Message, error) {
	return s.repo.ListMessages(ctx, limit)
}

func (s *Service) Campaigns(ctx context.Context) ([]Campaign, error) {
	return s.repo.ListCampaigns(ctx)
}

// StatsSince aggregates outcomes for the trailing number of days.
func (s *Service) StatsSince(ctx context.Context, days int) (Stats, error) {
	if days <= 0 {
		days = 30
	}
	return s.repo.MessageStats(ctx, s.now().UTC().AddDate(0, 0, -days))
}

// RunTriggers executes the daily reminder rules.
func (s *Service) RunTriggers(ctx context.Context) (RunReport, error) {
	return s.engine.RunTriggers(ctx)
}

// RunPromotion executes the weekly promotion rotation.
func (s *Service) RunPromotion(ctx context.Context) (RunReport, error) {
	return s.engine.RunPromotion(ctx)
}
