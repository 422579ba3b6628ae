// Package bootstrap prepares the database when the service starts: it creates the schema, seeds an
// empty contacts table and trims a table that grew beyond the seed size.
package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"gitlab.com/dirk.krummacker/contact-manager/internal/metrics"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

// SeedSize is the number of contacts kept after bootstrapping.
const SeedSize = 5

// Store is the subset of the persistence gateway needed for bootstrapping.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	ListAll(ctx context.Context, page model.Page) ([]model.Contact, error)
	InsertMany(ctx context.Context, contacts []model.Contact) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

// Bootstrapper runs the startup routine.
type Bootstrapper struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New returns a Bootstrapper. The metrics argument may be nil.
func New(st Store, logger *slog.Logger, m *metrics.Metrics) *Bootstrapper {
	return &Bootstrapper{store: st, logger: logger, metrics: m, now: time.Now}
}

// Run makes sure the schema exists and that the table holds exactly SeedSize contacts if it was
// empty or held more. Failures are logged and otherwise ignored so that the service starts anyway.
func (b *Bootstrapper) Run(ctx context.Context) {
	if err := b.store.EnsureSchema(ctx); err != nil {
		b.logger.ErrorContext(ctx, "could not create database schema", "error", err)
		return
	}
	count, err := b.store.Count(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "could not count contacts", "error", err)
		return
	}
	switch {
	case count == 0:
		b.seed(ctx)
	case count > SeedSize:
		b.trim(ctx, count)
	default:
		b.logger.InfoContext(ctx, "database already holds contacts", "count", count)
	}
}

func (b *Bootstrapper) seed(ctx context.Context) {
	contacts := SeedContacts(b.now().UTC().Truncate(time.Microsecond))
	if err := b.store.InsertMany(ctx, contacts); err != nil {
		b.logger.ErrorContext(ctx, "could not seed contacts", "error", err)
		return
	}
	b.metrics.ContactsWritten(metrics.OpSeed, len(contacts))
	b.logger.InfoContext(ctx, "database initialized with seed contacts", "count", len(contacts))
}

func (b *Bootstrapper) trim(ctx context.Context, count int64) {
	extra, err := b.store.ListAll(ctx, model.Page{Offset: SeedSize})
	if err != nil {
		b.logger.ErrorContext(ctx, "could not list surplus contacts", "error", err)
		return
	}
	ids := make([]int64, 0, len(extra))
	for _, c := range extra {
		ids = append(ids, c.Id)
	}
	deleted, err := b.store.DeleteMany(ctx, ids)
	if err != nil {
		b.logger.ErrorContext(ctx, "could not delete surplus contacts", "error", err)
		return
	}
	b.metrics.ContactsWritten(metrics.OpTrim, int(deleted))
	b.logger.InfoContext(ctx, "deleted surplus contacts", "count", count, "deleted", deleted)
}

// SeedContacts returns the contacts inserted into an empty database, all created at now.
func SeedContacts(now time.Time) []model.Contact {
	seed := []struct {
		name, phone, jobTitle string
		birthDate             time.Time
	}{
		{"Иван Иванов", "+7 (912) 345-67-89", "Менеджер по продажам", date(1990, time.May, 15)},
		{"Мария Петрова", "+375 (29) 123-45-67", "Дизайнер UI/UX", date(1985, time.August, 22)},
		{"Алексей Сидоров", "+380 (95) 678-90-12", "Backend разработчик", date(1992, time.March, 10)},
		{"Екатерина Козлова", "+7 (916) 234-56-78", "Маркетолог", date(1988, time.November, 30)},
		{"Дмитрий Николаев", "+375 (33) 456-78-90", "Аналитик данных", date(1995, time.July, 18)},
	}
	contacts := make([]model.Contact, 0, len(seed))
	for _, s := range seed {
		jobTitle, birthDate := s.jobTitle, s.birthDate
		contacts = append(contacts, model.Contact{
			Name:        s.name,
			MobilePhone: s.phone,
			JobTitle:    &jobTitle,
			BirthDate:   &birthDate,
			CreatedDate: now,
			UpdatedDate: now,
		})
	}
	return contacts
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
