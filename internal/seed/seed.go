// Package seed writes the fixture data set to the database and removes it again
package seed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/onboardkit/harness/internal/db/models"
	"github.com/onboardkit/harness/internal/fixtures"
	"github.com/onboardkit/harness/internal/logger"
)

// Seed scenario names
const (
	ScenarioMinimal = "minimal"
	ScenarioFull    = "full"
	ScenarioEmpty   = "empty"
)

// Store is the persistence contract the seeder relies on
type Store interface {
	Upsert(ctx context.Context, entity interface{}) error
	DeleteMany(ctx context.Context, model interface{}, ids []string) (int64, error)
}

// Plan is the set of rows a scenario writes
type Plan struct {
	Scenario    string              `json:"scenario"`
	Clients     []models.Client     `json:"clients"`
	Agreements  []models.Agreement  `json:"agreements"`
	AuditEvents []models.AuditEvent `json:"audit_events"`
}

// Report summarises a seed or cleanup run
type Report struct {
	Scenario    string `json:"scenario,omitempty"`
	DryRun      bool   `json:"dry_run"`
	Clients     int64  `json:"clients"`
	Agreements  int64  `json:"agreements"`
	AuditEvents int64  `json:"audit_events"`
}

// Total returns the number of rows touched
func (r Report) Total() int64 {
	return r.Clients + r.Agreements + r.AuditEvents
}

// Scenarios returns the sorted seed scenario names
func Scenarios() []string {
	names := []string{ScenarioMinimal, ScenarioFull, ScenarioEmpty}
	sort.Strings(names)
	return names
}

// Option configures a Seeder
type Option func(*Seeder)

// WithDryRun makes Seed and Cleanup report what they would do without writing
func WithDryRun(dryRun bool) Option {
	return func(s *Seeder) {
		s.dryRun = dryRun
	}
}

// Seeder seeds and cleans the fixture data set
type Seeder struct {
	store  Store
	dryRun bool
}

// NewSeeder creates a new Seeder
func NewSeeder(store Store, opts ...Option) *Seeder {
	s := &Seeder{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DryRun reports whether the seeder writes nothing
func (s *Seeder) DryRun() bool {
	return s.dryRun
}

// BuildPlan returns the rows of a scenario. Fixtures are validated first.
func BuildPlan(scenario string) (*Plan, error) {
	if err := fixtures.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}

	plan := &Plan{Scenario: scenario}
	var clients []fixtures.Client
	var agreements []fixtures.Agreement

	switch scenario {
	case ScenarioEmpty:
	case ScenarioMinimal:
		c, _ := fixtures.ClientByID(fixtures.AcmeClientID)
		clients = []fixtures.Client{c}
		for _, a := range fixtures.AgreementsForClient(fixtures.AcmeClientID) {
			if a.ID == fixtures.AcmeAgreementID {
				agreements = append(agreements, a)
			}
		}
	case ScenarioFull:
		clients = fixtures.Clients()
		agreements = fixtures.Agreements()
	default:
		return nil, fmt.Errorf("unknown seed scenario: %s", scenario)
	}

	for _, c := range clients {
		plan.Clients = append(plan.Clients, models.NewClient(c))
	}
	for _, a := range agreements {
		plan.Agreements = append(plan.Agreements, models.NewAgreement(a))
		ev, err := auditEventFor(a)
		if err != nil {
			return nil, err
		}
		plan.AuditEvents = append(plan.AuditEvents, ev)
	}
	return plan, nil
}

// auditEventFor derives the audit event of an agreement. The ULID entropy comes
// from the agreement ID, so reseeding produces the same row.
func auditEventFor(a fixtures.Agreement) (models.AuditEvent, error) {
	at := a.CreatedAt
	action := models.AuditActionAgreementCreated
	switch a.Status {
	case fixtures.AgreementSent:
		action = models.AuditActionAgreementSent
	case fixtures.AgreementSigned:
		action = models.AuditActionAgreementSigned
		if a.SignedAt != nil {
			at = *a.SignedAt
		}
	}

	sum := sha256.Sum256([]byte(a.ID))
	id, err := ulid.New(ulid.Timestamp(at), bytes.NewReader(sum[:]))
	if err != nil {
		return models.AuditEvent{}, fmt.Errorf("failed to create audit event id for %s: %w", a.ID, err)
	}
	return models.AuditEvent{
		ID:          id.String(),
		AgreementID: a.ID,
		ActorID:     fixtures.MainOperatorID,
		Action:      action,
		Details:     fmt.Sprintf("terms %s", a.TermsVersion),
		CreatedAt:   at,
	}, nil
}

// Seed upserts every row of the scenario, parents before children
func (s *Seeder) Seed(ctx context.Context, scenario string) (Report, error) {
	plan, err := BuildPlan(scenario)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Scenario:    scenario,
		DryRun:      s.dryRun,
		Clients:     int64(len(plan.Clients)),
		Agreements:  int64(len(plan.Agreements)),
		AuditEvents: int64(len(plan.AuditEvents)),
	}
	if s.dryRun {
		logger.InfoWithFields("dry run: nothing written", map[string]interface{}{
			"scenario": scenario,
			"rows":     report.Total(),
		})
		return report, nil
	}

	for i := range plan.Clients {
		if err := s.store.Upsert(ctx, &plan.Clients[i]); err != nil {
			return Report{}, fmt.Errorf("failed to seed client %s: %w", plan.Clients[i].ID, err)
		}
	}
	for i := range plan.Agreements {
		if err := s.store.Upsert(ctx, &plan.Agreements[i]); err != nil {
			return Report{}, fmt.Errorf("failed to seed agreement %s: %w", plan.Agreements[i].ID, err)
		}
	}
	for i := range plan.AuditEvents {
		if err := s.store.Upsert(ctx, &plan.AuditEvents[i]); err != nil {
			return Report{}, fmt.Errorf("failed to seed audit event %s: %w", plan.AuditEvents[i].ID, err)
		}
	}

	logger.InfoWithFields("seeded fixtures", map[string]interface{}{
		"scenario":     scenario,
		"clients":      report.Clients,
		"agreements":   report.Agreements,
		"audit_events": report.AuditEvents,
	})
	return report, nil
}

// Cleanup deletes every fixture row, children before parents. Rows that are
// not present are skipped; the report counts rows actually removed.
func (s *Seeder) Cleanup(ctx context.Context) (Report, error) {
	plan, err := BuildPlan(ScenarioFull)
	if err != nil {
		return Report{}, err
	}
	report := Report{DryRun: s.dryRun}
	if s.dryRun {
		report.Clients = int64(len(plan.Clients))
		report.Agreements = int64(len(plan.Agreements))
		report.AuditEvents = int64(len(plan.AuditEvents))
		logger.InfoWithFields("dry run: nothing deleted", map[string]interface{}{"rows": report.Total()})
		return report, nil
	}

	eventIDs := make([]string, 0, len(plan.AuditEvents))
	for _, ev := range plan.AuditEvents {
		eventIDs = append(eventIDs, ev.ID)
	}
	agreementIDs := make([]string, 0, len(plan.Agreements))
	for _, a := range plan.Agreements {
		agreementIDs = append(agreementIDs, a.ID)
	}
	clientIDs := make([]string, 0, len(plan.Clients))
	for _, c := range plan.Clients {
		clientIDs = append(clientIDs, c.ID)
	}

	if report.AuditEvents, err = s.store.DeleteMany(ctx, &models.AuditEvent{}, eventIDs); err != nil {
		return Report{}, fmt.Errorf("failed to clean audit events: %w", err)
	}
	if report.Agreements, err = s.store.DeleteMany(ctx, &models.Agreement{}, agreementIDs); err != nil {
		return Report{}, fmt.Errorf("failed to clean agreements: %w", err)
	}
	if report.Clients, err = s.store.DeleteMany(ctx, &models.Client{}, clientIDs); err != nil {
		return Report{}, fmt.Errorf("failed to clean clients: %w", err)
	}

	logger.InfoWithFields("cleaned fixtures", map[string]interface{}{"rows": report.Total()})
	return report, nil
}
