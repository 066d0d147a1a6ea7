package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TriggerHit is one automation rule that matched a candidate.
type TriggerHit struct {
	Trigger  TriggerType
	Category string
	Urgent   bool
}

// EvaluateTriggers returns the rules matching a candidate, strongest first.
// MOT reminders are urgent and bypass frequency caps; service and
// inactivity nudges are not.
func EvaluateTriggers(now time.Time, c Candidate) []TriggerHit {
	var hits []TriggerHit

	if c.MOTExpiry != nil {
		until := c.MOTExpiry.Sub(now)
		switch {
		case until > 0 && until <= 7*24*time.Hour:
			hits = append(hits, TriggerHit{Trigger: TriggerMOT7, Category: CategoryMOTReminder, Urgent: true})
		case until > 7*24*time.Hour && until <= 30*24*time.Hour:
			hits = append(hits, TriggerHit{Trigger: TriggerMOT30, Category: CategoryMOTReminder, Urgent: true})
		}
	}

	if c.LastServiceDate != nil && !c.LastServiceDate.After(now.AddDate(0, -6, 0)) {
		hits = append(hits, TriggerHit{Trigger: TriggerOilChange, Category: CategoryOilChange})
	}

	if c.LastRepairDate != nil {
		switch {
		case !c.LastRepairDate.After(now.AddDate(-1, 0, 0)):
			hits = append(hits, TriggerHit{Trigger: TriggerInactive12, Category: CategoryInactive})
		case !c.LastRepairDate.After(now.AddDate(0, -6, 0)):
			hits = append(hits, TriggerHit{Trigger: TriggerInactive6, Category: CategoryInactive})
		}
	}

	return hits
}

// RenderTemplate substitutes candidate fields into a template body.
func RenderTemplate(body string, c Candidate) string {
	return strings.NewReplacer(
		"{{FirstName}}", c.FirstName,
		"{{FullName}}", c.FullName(),
		"{{VehicleModel}}", c.VehicleModel,
		"{{LicensePlate}}", c.LicensePlate,
	).Replace(body)
}

// dedupeWindow is how long a trigger stays quiet for a customer after
// firing. The 7-day MOT reminder may follow a 30-day one.
func dedupeWindow(trigger TriggerType) time.Duration {
	if trigger == TriggerMOT7 {
		return 7 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// EngineRepository is the storage surface the engine runs against.
type EngineRepository interface {
	ListCandidates(ctx context.Context) ([]Candidate, error)
	ActiveTemplateByCategory(ctx context.Context, category string) (Template, error)
	ListPromoTemplates(ctx context.Context) ([]Template, error)
	PromoCountSince(ctx context.Context, customerID uuid.UUID, since time.Time) (int, error)
	MessageCountSince(ctx context.Context, customerID uuid.UUID, since time.Time) (int, error)
	RecentTemplateNames(ctx context.Context, since time.Time) ([]string, error)
	LastTriggerAt(ctx context.Context, customerID uuid.UUID, trigger TriggerType) (*time.Time, error)
	InsertMessage(ctx context.Context, m Message) (uuid.UUID, error)
	MarkMessage(ctx context.Context, id uuid.UUID, status MessageStatus, providerID *string, sendErr *string, sentAt *time.Time) error
	RecordCampaign(ctx context.Context, c Campaign) (uuid.UUID, error)
}

// CapsPort supplies the frequency cap configuration.
type CapsPort interface {
	MaxPromoPerWeek(ctx context.Context) int
	MaxMessagesPerMonth(ctx context.Context) int
	SendingEnabled(ctx context.Context) bool
}

// SenderPort delivers one message. Implementations return ErrNoCredentials
// when the provider is not configured.
type SenderPort interface {
	Send(ctx context.Context, phone, body string) (providerID string, err error)
}

// MetricsPort counts message outcomes. Implementations must tolerate being
// called from concurrent runs.
type MetricsPort interface {
	RecordMessage(trigger, status string)
}

// Engine evaluates automation rules and drives message delivery.
type Engine struct {
	logger  *slog.Logger
	repo    EngineRepository
	caps    CapsPort
	sender  SenderPort
	metrics MetricsPort
	now     func() time.Time
}

func NewEngine(logger *slog.Logger, repo EngineRepository, caps CapsPort, sender SenderPort) *Engine {
	return &Engine{logger: logger, repo: repo, caps: caps, sender: sender, now: time.Now}
}

// SetMetrics attaches an outcome counter. A nil engine metrics port is a
// no-op.
func (e *Engine) SetMetrics(m MetricsPort) {
	e.metrics = m
}

func (e *Engine) recordOutcome(trigger TriggerType, status MessageStatus) {
	if e.metrics != nil {
		e.metrics.RecordMessage(string(trigger), string(status))
	}
}

// RunTriggers evaluates every customer vehicle against the reminder rules.
// Urgent MOT reminders bypass the frequency caps; everything else respects
// both the weekly promotional and the monthly cap.
func (e *Engine) RunTriggers(ctx context.Context) (RunReport, error) {
	now := e.now().UTC()
	candidates, err := e.repo.ListCandidates(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list candidates: %w", err)
	}

	var report RunReport
	for _, c := range candidates {
		report.Evaluated++
		if c.OptOut || c.Phone == "" {
			report.Skipped++
			continue
		}

		hit, ok, err := e.pickTrigger(ctx, now, c)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Skipped++
			continue
		}

		template, err := e.repo.ActiveTemplateByCategory(ctx, hit.Category)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("template for %s: %w", hit.Category, err)
		}

		if err := e.dispatch(ctx, c, template, hit.Trigger, hit.Urgent, &report); err != nil {
			return report, err
		}
	}

	e.logger.Info("trigger run finished",
		slog.Int("evaluated", report.Evaluated),
		slog.Int("sent", report.Sent),
		slog.Int("queued", report.Queued),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

func (e *Engine) pickTrigger(ctx context.Context, now time.Time, c Candidate) (TriggerHit, bool, error) {
	for _, hit := range EvaluateTriggers(now, c) {
		last, err := e.repo.LastTriggerAt(ctx, c.CustomerID, hit.Trigger)
		if err != nil {
			return TriggerHit{}, false, fmt.Errorf("last trigger: %w", err)
		}
		if last != nil && now.Sub(*last) < dedupeWindow(hit.Trigger) {
			continue
		}
		if !hit.Urgent {
			capped, err := e.capReached(ctx, now, c.CustomerID)
			if err != nil {
				return TriggerHit{}, false, err
			}
			if capped {
				continue
			}
		}
		return hit, true, nil
	}
	return TriggerHit{}, false, nil
}

// RunPromotion sends this week's promotion once to every eligible customer
// and records the run as a campaign. The template rotates: anything already
// used in the last 30 days is avoided while an unused one remains.
func (e *Engine) RunPromotion(ctx context.Context) (RunReport, error) {
	now := e.now().UTC()

	templates, err := e.repo.ListPromoTemplates(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list promo templates: %w", err)
	}
	recent, err := e.repo.RecentTemplateNames(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return RunReport{}, fmt.Errorf("recent templates: %w", err)
	}
	template, ok := pickRotation(templates, recent)
	if !ok {
		e.logger.Info("promotion run skipped, no active promo template")
		return RunReport{}, nil
	}

	candidates, err := e.repo.ListCandidates(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list candidates: %w", err)
	}

	var report RunReport
	seen := make(map[uuid.UUID]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.CustomerID]; dup {
			continue
		}
		seen[c.CustomerID] = struct{}{}

		report.Evaluated++
		if c.OptOut || c.Phone == "" {
			report.Skipped++
			continue
		}

		capped, err := e.capReached(ctx, now, c.CustomerID)
		if err != nil {
			return report, err
		}
		if capped {
			report.Skipped++
			continue
		}

		if err := e.dispatch(ctx, c, template, TriggerPromotion, false, &report); err != nil {
			return report, err
		}
	}

	campaign := Campaign{
		Name:       fmt.Sprintf("Weekly promotion %s", now.Format("2006-01-02")),
		Type:       CampaignWeeklyPromotion,
		TemplateID: &template.ID,
		Status:     CampaignStatusSent,
		Recipients: report.Evaluated - report.Skipped,
		Sent:       report.Sent + report.Queued,
		SentAt:     &now,
	}
	if _, err := e.repo.RecordCampaign(ctx, campaign); err != nil {
		return report, fmt.Errorf("record campaign: %w", err)
	}

	e.logger.Info("promotion run finished",
		slog.String("template", template.Name),
		slog.Int("sent", report.Sent),
		slog.Int("queued", report.Queued),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

// capReached applies both frequency caps: promo-class messages over the last
// 7 days and all messages over the last 30.
func (e *Engine) capReached(ctx context.Context, now time.Time, customerID uuid.UUID) (bool, error) {
	promoCount, err := e.repo.PromoCountSince(ctx, customerID, now.AddDate(0, 0, -7))
	if err != nil {
		return false, fmt.Errorf("promo count: %w", err)
	}
	if promoCount >= e.caps.MaxPromoPerWeek(ctx) {
		return true, nil
	}
	count, err := e.repo.MessageCountSince(ctx, customerID, now.AddDate(0, 0, -30))
	if err != nil {
		return false, fmt.Errorf("message count: %w", err)
	}
	return count >= e.caps.MaxMessagesPerMonth(ctx), nil
}

// pickRotation draws a random template among those not used in the last 30
// days, or among all of them when the rotation is exhausted. A single-template
// rotation therefore keeps sending every week.
func pickRotation(templates []Template, recentNames []string) (Template, bool) {
	if len(templates) == 0 {
		return Template{}, false
	}
	used := make(map[string]struct{}, len(recentNames))
	for _, n := range recentNames {
		used[n] = struct{}{}
	}
	fresh := make([]Template, 0, len(templates))
	for _, t := range templates {
		if _, ok := used[t.Name]; !ok {
			fresh = append(fresh, t)
		}
	}
	pool := templates
	if len(fresh) > 0 {
		pool = fresh
	}
	return pool[rand.IntN(len(pool))], true
}

// dispatch logs the message as pending, attempts delivery and finalizes
// the row with the outcome. A message is never reported sent before the
// store confirmed it.
func (e *Engine) dispatch(ctx context.Context, c Candidate, template Template, trigger TriggerType, urgent bool, report *RunReport) error {
	msg := Message{
		CustomerID:   c.CustomerID,
		Phone:        c.Phone,
		TemplateID:   &template.ID,
		TemplateName: template.Name,
		Category:     template.Category,
		Trigger:      trigger,
		Body:         RenderTemplate(template.Body, c),
		Urgent:       urgent,
	}
	id, err := e.repo.InsertMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if !e.caps.SendingEnabled(ctx) {
		report.Queued++
		e.recordOutcome(trigger, StatusQueued)
		return e.repo.MarkMessage(ctx, id, StatusQueued, nil, nil, nil)
	}

	providerID, err := e.sender.Send(ctx, c.Phone, msg.Body)
	switch {
	case errors.Is(err, ErrNoCredentials):
		report.Queued++
		e.recordOutcome(trigger, StatusQueued)
		return e.repo.MarkMessage(ctx, id, StatusQueued, nil, nil, nil)
	case err != nil:
		report.Failed++
		e.logger.Warn("whatsapp send failed", slog.String("phone", c.Phone), slog.Any("error", err))
		detail := err.Error()
		e.recordOutcome(trigger, StatusFailed)
		return e.repo.MarkMessage(ctx, id, StatusFailed, nil, &detail, nil)
	default:
		report.Sent++
		sentAt := e.now().UTC()
		e.recordOutcome(trigger, StatusSent)
		return e.repo.MarkMessage(ctx, id, StatusSent, &providerID, nil, &sentAt)
	}
}
