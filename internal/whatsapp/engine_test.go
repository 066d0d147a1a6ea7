package whatsapp

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type memEngineRepo struct {
	candidates []Candidate
	templates  []Template
	messages   []Message
	campaigns  []Campaign
}

func (r *memEngineRepo) ListCandidates(ctx context.Context) ([]Candidate, error) {
	return r.candidates, nil
}

func (r *memEngineRepo) ActiveTemplateByCategory(ctx context.Context, category string) (Template, error) {
	for _, t := range r.templates {
		if t.Category == category && t.Active {
			return t, nil
		}
	}
	return Template{}, ErrNotFound
}

func (r *memEngineRepo) ListPromoTemplates(ctx context.Context) ([]Template, error) {
	var out []Template
	for _, t := range r.templates {
		if IsPromoCategory(t.Category) && t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memEngineRepo) PromoCountSince(ctx context.Context, customerID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, m := range r.messages {
		if m.CustomerID == customerID && IsPromoCategory(m.Category) &&
			(m.Status == StatusSent || m.Status == StatusQueued) && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memEngineRepo) MessageCountSince(ctx context.Context, customerID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, m := range r.messages {
		if m.CustomerID == customerID && (m.Status == StatusSent || m.Status == StatusQueued) &&
			!m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memEngineRepo) RecentTemplateNames(ctx context.Context, since time.Time) ([]string, error) {
	var out []string
	for _, m := range r.messages {
		if !m.CreatedAt.Before(since) {
			out = append(out, m.TemplateName)
		}
	}
	return out, nil
}

func (r *memEngineRepo) LastTriggerAt(ctx context.Context, customerID uuid.UUID, trigger TriggerType) (*time.Time, error) {
	var last *time.Time
	for _, m := range r.messages {
		if m.CustomerID == customerID && m.Trigger == trigger &&
			(m.Status == StatusSent || m.Status == StatusQueued) {
			at := m.CreatedAt
			if last == nil || at.After(*last) {
				last = &at
			}
		}
	}
	return last, nil
}

func (r *memEngineRepo) InsertMessage(ctx context.Context, m Message) (uuid.UUID, error) {
	m.ID = uuid.New()
	m.Status = StatusPending
	m.CreatedAt = testNow
	r.messages = append(r.messages, m)
	return m.ID, nil
}

func (r *memEngineRepo) MarkMessage(ctx context.Context, id uuid.UUID, status MessageStatus, providerID *string, sendErr *string, sentAt *time.Time) error {
	for i := range r.messages {
		if r.messages[i].ID == id {
			r.messages[i].Status = status
			r.messages[i].ProviderID = providerID
			r.messages[i].Error = sendErr
			r.messages[i].SentAt = sentAt
			return nil
		}
	}
	return ErrNotFound
}

func (r *memEngineRepo) RecordCampaign(ctx context.Context, c Campaign) (uuid.UUID, error) {
	c.ID = uuid.New()
	c.CreatedAt = testNow
	r.campaigns = append(r.campaigns, c)
	return c.ID, nil
}

type fakeCaps struct {
	promoWeek int
	msgsMonth int
	enabled   bool
}

func (c fakeCaps) MaxPromoPerWeek(ctx context.Context) int     { return c.promoWeek }
func (c fakeCaps) MaxMessagesPerMonth(ctx context.Context) int { return c.msgsMonth }
func (c fakeCaps) SendingEnabled(ctx context.Context) bool     { return c.enabled }

type fakeSender struct {
	err   error
	sent  []string
	calls int
}

func (s *fakeSender) Send(ctx context.Context, phone, body string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, phone)
	return "wamid.test", nil
}

func newTestEngine(repo *memEngineRepo, caps fakeCaps, sender *fakeSender) *Engine {
	e := NewEngine(slog.Default(), repo, caps, sender)
	e.now = func() time.Time { return testNow }
	return e
}

func days(n int) time.Time { return testNow.AddDate(0, 0, n) }

func motTemplates() []Template {
	return []Template{
		{ID: uuid.New(), Name: "mot-due", Category: CategoryMOTReminder, Body: "Hi {{FirstName}}, MOT for {{LicensePlate}} is due soon", Active: true},
		{ID: uuid.New(), Name: "oil-time", Category: CategoryOilChange, Body: "{{FullName}}, your {{VehicleModel}} needs an oil change", Active: true},
		{ID: uuid.New(), Name: "miss-you", Category: CategoryInactive, Body: "We miss you {{FirstName}}", Active: true},
	}
}

func TestEvaluateTriggersMOTWindows(t *testing.T) {
	exp20 := days(20)
	hits := EvaluateTriggers(testNow, Candidate{MOTExpiry: &exp20})
	require.Len(t, hits, 1)
	require.Equal(t, TriggerMOT30, hits[0].Trigger)
	require.True(t, hits[0].Urgent)

	exp3 := days(3)
	hits = EvaluateTriggers(testNow, Candidate{MOTExpiry: &exp3})
	require.Equal(t, TriggerMOT7, hits[0].Trigger)

	expired := days(-1)
	require.Empty(t, EvaluateTriggers(testNow, Candidate{MOTExpiry: &expired}))

	far := days(45)
	require.Empty(t, EvaluateTriggers(testNow, Candidate{MOTExpiry: &far}))
}

func TestEvaluateTriggersServiceAndInactivity(t *testing.T) {
	sevenMonths := testNow.AddDate(0, -7, 0)
	hits := EvaluateTriggers(testNow, Candidate{LastServiceDate: &sevenMonths})
	require.Len(t, hits, 1)
	require.Equal(t, TriggerOilChange, hits[0].Trigger)
	require.False(t, hits[0].Urgent)

	fiveMonths := testNow.AddDate(0, -5, 0)
	require.Empty(t, EvaluateTriggers(testNow, Candidate{LastServiceDate: &fiveMonths}))

	eightMonths := testNow.AddDate(0, -8, 0)
	hits = EvaluateTriggers(testNow, Candidate{LastRepairDate: &eightMonths})
	require.Equal(t, TriggerInactive6, hits[0].Trigger)

	fourteenMonths := testNow.AddDate(0, -14, 0)
	hits = EvaluateTriggers(testNow, Candidate{LastRepairDate: &fourteenMonths})
	require.Equal(t, TriggerInactive12, hits[0].Trigger)
}

func TestRenderTemplate(t *testing.T) {
	c := Candidate{FirstName: "Maria", LastName: "Silva", VehicleModel: "PCX125", LicensePlate: "AB12 CDE"}
	body := RenderTemplate("Hi {{FirstName}} ({{FullName}}), {{VehicleModel}} plate {{LicensePlate}}", c)
	require.Equal(t, "Hi Maria (Maria Silva), PCX125 plate AB12 CDE", body)
}

func TestRunTriggersSendsMOTReminder(t *testing.T) {
	exp := days(10)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), FirstName: "Maria", Phone: "+447700900123", LicensePlate: "AB12 CDE", MOTExpiry: &exp}},
		templates:  motTemplates(),
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Len(t, repo.messages, 1)
	require.Equal(t, StatusSent, repo.messages[0].Status)
	require.Equal(t, TriggerMOT30, repo.messages[0].Trigger)
	require.Contains(t, repo.messages[0].Body, "AB12 CDE")
	require.NotNil(t, repo.messages[0].SentAt)
}

func TestRunTriggersSkipsOptOutAndMissingPhone(t *testing.T) {
	exp := days(10)
	repo := &memEngineRepo{
		candidates: []Candidate{
			{CustomerID: uuid.New(), Phone: "+447700900123", OptOut: true, MOTExpiry: &exp},
			{CustomerID: uuid.New(), Phone: "", MOTExpiry: &exp},
		},
		templates: motTemplates(),
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Skipped)
	require.Zero(t, sender.calls)
}

func TestRunTriggersMonthlyCapBlocksNonUrgent(t *testing.T) {
	customerID := uuid.New()
	sevenMonths := testNow.AddDate(0, -7, 0)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: customerID, Phone: "+447700900123", LastServiceDate: &sevenMonths}},
		templates:  motTemplates(),
		messages: []Message{
			{CustomerID: customerID, TemplateName: "a", Category: CategoryPromotion, Status: StatusSent, CreatedAt: days(-5)},
			{CustomerID: customerID, TemplateName: "b", Category: CategoryInactive, Status: StatusSent, CreatedAt: days(-10)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, sender.calls)
}

func TestRunTriggersUrgentBypassesMonthlyCap(t *testing.T) {
	customerID := uuid.New()
	exp := days(3)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: customerID, Phone: "+447700900123", MOTExpiry: &exp}},
		templates:  motTemplates(),
		messages: []Message{
			{CustomerID: customerID, TemplateName: "a", Category: CategoryPromotion, Status: StatusSent, CreatedAt: days(-5)},
			{CustomerID: customerID, TemplateName: "b", Category: CategoryInactive, Status: StatusSent, CreatedAt: days(-10)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, TriggerMOT7, repo.messages[len(repo.messages)-1].Trigger)
}

func TestRunTriggersDedupesRecentTrigger(t *testing.T) {
	customerID := uuid.New()
	exp := days(20)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: customerID, Phone: "+447700900123", MOTExpiry: &exp}},
		templates:  motTemplates(),
		messages: []Message{
			{CustomerID: customerID, TemplateName: "mot-due", Trigger: TriggerMOT30, Category: CategoryMOTReminder, Status: StatusSent, CreatedAt: days(-10)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, sender.calls)
}

func TestRunTriggersQueuesWithoutCredentials(t *testing.T) {
	exp := days(10)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), Phone: "+447700900123", MOTExpiry: &exp}},
		templates:  motTemplates(),
	}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, &fakeSender{err: ErrNoCredentials})

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Queued)
	require.Equal(t, StatusQueued, repo.messages[0].Status)
}

func TestRunTriggersRecordsFailure(t *testing.T) {
	exp := days(10)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), Phone: "+447700900123", MOTExpiry: &exp}},
		templates:  motTemplates(),
	}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, &fakeSender{err: errors.New("rate limited")})

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, StatusFailed, repo.messages[0].Status)
	require.NotNil(t, repo.messages[0].Error)
	require.Contains(t, *repo.messages[0].Error, "rate limited")
}

func TestRunPromotionRotatesTemplates(t *testing.T) {
	promoA := Template{ID: uuid.New(), Name: "promo-a", Category: CategoryPromotion, Body: "Deal A for {{FirstName}}", Active: true}
	promoB := Template{ID: uuid.New(), Name: "promo-b", Category: CategoryCampaign, Body: "Deal B", Active: true}
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), FirstName: "Maria", Phone: "+447700900123"}},
		templates:  []Template{promoA, promoB},
		messages: []Message{
			{CustomerID: uuid.New(), TemplateName: "promo-a", Category: CategoryPromotion, Status: StatusSent, CreatedAt: days(-14)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunPromotion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, "promo-b", repo.messages[len(repo.messages)-1].TemplateName)
}

func TestRunPromotionReusesTemplateWhenRotationExhausted(t *testing.T) {
	promoA := Template{ID: uuid.New(), Name: "promo-a", Category: CategoryPromotion, Body: "Deal A", Active: true}
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), Phone: "+447700900123"}},
		templates:  []Template{promoA},
		messages: []Message{
			{CustomerID: uuid.New(), TemplateName: "promo-a", Category: CategoryPromotion, Status: StatusSent, CreatedAt: days(-14)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunPromotion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, "promo-a", repo.messages[len(repo.messages)-1].TemplateName)
}

func TestRunPromotionSkipsWithoutActiveTemplates(t *testing.T) {
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), Phone: "+447700900123"}},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunPromotion(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Sent)
	require.Zero(t, sender.calls)
	require.Empty(t, repo.campaigns)
}

func TestRunPromotionWeeklyCap(t *testing.T) {
	customerID := uuid.New()
	promoB := Template{ID: uuid.New(), Name: "promo-b", Category: CategoryPromotion, Body: "Deal B", Active: true}
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: customerID, Phone: "+447700900123"}},
		templates:  []Template{promoB},
		messages: []Message{
			{CustomerID: customerID, TemplateName: "promo-old", Category: CategoryPassBy, Status: StatusSent, CreatedAt: days(-45)},
			{CustomerID: customerID, TemplateName: "promo-a", Category: CategoryPromotion, Status: StatusSent, CreatedAt: days(-3)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunPromotion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, sender.calls)
}

func TestRunTriggersWeeklyPromoCapBlocksNonUrgent(t *testing.T) {
	customerID := uuid.New()
	sevenMonths := testNow.AddDate(0, -7, 0)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: customerID, Phone: "+447700900123", LastServiceDate: &sevenMonths}},
		templates:  motTemplates(),
		messages: []Message{
			{CustomerID: customerID, TemplateName: "promo-a", Category: CategoryPromotion, Status: StatusSent, CreatedAt: days(-3)},
		},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 5, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Sent)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, sender.calls)
}

func TestRunPromotionRecordsCampaign(t *testing.T) {
	promoA := Template{ID: uuid.New(), Name: "promo-a", Category: CategoryPromotion, Body: "Deal A", Active: true}
	repo := &memEngineRepo{
		candidates: []Candidate{
			{CustomerID: uuid.New(), Phone: "+447700900123"},
			{CustomerID: uuid.New(), Phone: "+447700900456"},
		},
		templates: []Template{promoA},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 5, enabled: true}, sender)

	report, err := engine.RunPromotion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Sent)

	require.Len(t, repo.campaigns, 1)
	campaign := repo.campaigns[0]
	require.Equal(t, CampaignWeeklyPromotion, campaign.Type)
	require.Equal(t, CampaignStatusSent, campaign.Status)
	require.Equal(t, 2, campaign.Recipients)
	require.Equal(t, 2, campaign.Sent)
	require.NotNil(t, campaign.SentAt)
	require.NotNil(t, campaign.TemplateID)
	require.Equal(t, promoA.ID, *campaign.TemplateID)
}

func TestRunTriggersEvaluatesEveryBike(t *testing.T) {
	customerID := uuid.New()
	twoMonths := testNow.AddDate(0, -2, 0)
	exp := days(10)
	repo := &memEngineRepo{
		candidates: []Candidate{
			{CustomerID: customerID, Phone: "+447700900123", VehicleModel: "MT-07", LicensePlate: "AA11 AAA", LastServiceDate: &twoMonths},
			{CustomerID: customerID, Phone: "+447700900123", VehicleModel: "CB500F", LicensePlate: "BB22 BBB", MOTExpiry: &exp},
		},
		templates: motTemplates(),
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: true}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, TriggerMOT30, repo.messages[0].Trigger)
	require.Contains(t, repo.messages[0].Body, "BB22 BBB")
}

func TestRunPromotionSendsOncePerCustomer(t *testing.T) {
	customerID := uuid.New()
	promoA := Template{ID: uuid.New(), Name: "promo-a", Category: CategoryPromotion, Body: "Deal A", Active: true}
	repo := &memEngineRepo{
		candidates: []Candidate{
			{CustomerID: customerID, Phone: "+447700900123", VehicleModel: "MT-07"},
			{CustomerID: customerID, Phone: "+447700900123", VehicleModel: "CB500F"},
		},
		templates: []Template{promoA},
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 5, msgsMonth: 5, enabled: true}, sender)

	report, err := engine.RunPromotion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Len(t, repo.messages, 1)
}

func TestDispatchQueuesWhenSendingDisabled(t *testing.T) {
	exp := days(10)
	repo := &memEngineRepo{
		candidates: []Candidate{{CustomerID: uuid.New(), Phone: "+447700900123", MOTExpiry: &exp}},
		templates:  motTemplates(),
	}
	sender := &fakeSender{}
	engine := newTestEngine(repo, fakeCaps{promoWeek: 1, msgsMonth: 2, enabled: false}, sender)

	report, err := engine.RunTriggers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Queued)
	require.Zero(t, sender.calls)
}
