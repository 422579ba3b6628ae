// Package service implements the contact operations shared by the HTML page and the REST API. It
// validates input, maintains the audit timestamps and translates store errors.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"gitlab.com/dirk.krummacker/contact-manager/internal/metrics"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the persistence gateway used by the service.
type Store interface {
	ListAll(ctx context.Context, page model.Page) ([]model.Contact, error)
	GetByID(ctx context.Context, id int64) (model.Contact, error)
	Insert(ctx context.Context, contact *model.Contact) error
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service implements create, read, update and delete of contacts.
type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, e.g. to get predictable timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics counts successful writes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer replaces the tracer taken from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger sets the logger for write operations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service working on the given store.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		validate: newValidator(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("contact-manager/service")
	}
	return s
}

// timestamp returns the current time as it will be stored. MySQL DATETIME(6) keeps microseconds,
// so anything finer would differ after a round trip.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) startSpan(ctx context.Context, name string, id int64) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if id != 0 {
		span.SetAttributes(attribute.Int64("contact.id", id))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// List returns the contacts newest first.
func (s *Service) List(ctx context.Context, page model.Page) (contacts []model.Contact, err error) {
	ctx, span := s.startSpan(ctx, "contacts.List", 0)
	defer func() { endSpan(span, err) }()

	contacts, err = s.store.ListAll(ctx, page)
	if err != nil {
		return nil, translate(err, 0)
	}
	return contacts, nil
}

// Get returns the contact with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (contact model.Contact, err error) {
	ctx, span := s.startSpan(ctx, "contacts.Get", id)
	defer func() { endSpan(span, err) }()

	contact, err = s.store.GetByID(ctx, id)
	if err != nil {
		return model.Contact{}, translate(err, id)
	}
	return contact, nil
}

// Create validates the input and stores it as a new contact. The id of the input is ignored; the
// store assigns a fresh one. Both timestamps are set to the current time.
func (s *Service) Create(ctx context.Context, input model.Contact) (contact model.Contact, err error) {
	ctx, span := s.startSpan(ctx, "contacts.Create", 0)
	defer func() { endSpan(span, err) }()

	contact = model.Contact{
		Name:        input.Name,
		MobilePhone: input.MobilePhone,
		JobTitle:    input.JobTitle,
		BirthDate:   dateOnly(input.BirthDate),
	}
	if err = s.validateContact(&contact); err != nil {
		return model.Contact{}, err
	}
	now := s.timestamp()
	contact.CreatedDate = now
	contact.UpdatedDate = now
	if err = s.store.Insert(ctx, &contact); err != nil {
		return model.Contact{}, translate(err, 0)
	}
	s.metrics.ContactsWritten(metrics.OpCreate, 1)
	s.logger.DebugContext(ctx, "contact created", "id", contact.Id)
	return contact, nil
}

// Update replaces name, phone, job title and birth date of the contact with the given id and
// refreshes its update timestamp. The id in the input must match id.
func (s *Service) Update(ctx context.Context, id int64, input model.Contact) (contact model.Contact, err error) {
	ctx, span := s.startSpan(ctx, "contacts.Update", id)
	defer func() { endSpan(span, err) }()

	if input.Id != id {
		return model.Contact{}, &ValidationError{Field: "id", Message: "contact id does not match"}
	}
	input.BirthDate = dateOnly(input.BirthDate)
	if err = s.validateContact(&input); err != nil {
		return model.Contact{}, err
	}

	contact, err = s.store.GetByID(ctx, id)
	if err != nil {
		return model.Contact{}, translate(err, id)
	}
	contact.Name = input.Name
	contact.MobilePhone = input.MobilePhone
	contact.JobTitle = input.JobTitle
	contact.BirthDate = input.BirthDate
	contact.UpdatedDate = s.timestamp()
	if contact.UpdatedDate.Before(contact.CreatedDate) {
		contact.UpdatedDate = contact.CreatedDate
	}

	if err = s.store.Update(ctx, &contact); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return model.Contact{}, translate(err, id)
		}
		// The row vanished or changed between read and write. Only a deleted row is answered
		// with not found; any other conflict fails the request.
		exists, existsErr := s.store.Exists(ctx, id)
		if existsErr == nil && !exists {
			return model.Contact{}, fmt.Errorf("contact %d: %w", id, ErrNotFound)
		}
		return model.Contact{}, err
	}
	s.metrics.ContactsWritten(metrics.OpUpdate, 1)
	s.logger.DebugContext(ctx, "contact updated", "id", id)
	return contact, nil
}

// Delete removes the contact with the given id or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "contacts.Delete", id)
	defer func() { endSpan(span, err) }()

	if err = s.store.Delete(ctx, id); err != nil {
		return translate(err, id)
	}
	s.metrics.ContactsWritten(metrics.OpDelete, 1)
	s.logger.DebugContext(ctx, "contact deleted", "id", id)
	return nil
}

// dateOnly strips the time of day from a birth date.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
