package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/metrics"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/service/mocks"
	"gitlab.com/dirk.krummacker/contact-manager/internal/store"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	metrics   *metrics.Metrics
	now       time.Time
	service   *Service
	ctx       context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2025, time.June, 1, 12, 0, 0, 123456789, time.UTC)
	s.ctx = context.Background()
	s.service = New(s.mockStore,
		WithClock(func() time.Time { return s.now }),
		WithMetrics(s.metrics),
		WithLogger(logger.Discard()),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func ptr[T any](v T) *T {
	return &v
}

func (s *ServiceSuite) storedContact(id int64, created time.Time) model.Contact {
	return model.Contact{
		Id:          id,
		Name:        "Erika Mustermann",
		MobilePhone: "+49 0815 4711",
		JobTitle:    ptr("Engineer"),
		BirthDate:   ptr(time.Date(1969, time.March, 2, 0, 0, 0, 0, time.UTC)),
		CreatedDate: created,
		UpdatedDate: created,
	}
}

func (s *ServiceSuite) TestCreateSetsTimestampsAndId() {
	expected := s.now.Truncate(time.Microsecond)
	s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *model.Contact) error {
			s.Equal(int64(0), c.Id)
			s.Equal(expected, c.CreatedDate)
			s.Equal(expected, c.UpdatedDate)
			c.Id = 7
			return nil
		})

	created, err := s.service.Create(s.ctx, model.Contact{
		Id:          99,
		Name:        "Erika Mustermann",
		MobilePhone: "+49 0815 4711",
		BirthDate:   ptr(time.Date(1969, time.March, 2, 15, 30, 0, 0, time.UTC)),
		CreatedDate: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.Equal(int64(7), created.Id)
	s.Equal(created.CreatedDate, created.UpdatedDate)
	s.Equal(expected, created.CreatedDate)
	s.Equal(time.Date(1969, time.March, 2, 0, 0, 0, 0, time.UTC), *created.BirthDate)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ContactWrites.WithLabelValues(metrics.OpCreate)))
}

// TestCreateValidation expects a validation error for every invalid input without the store
// being called.
func (s *ServiceSuite) TestCreateValidation() {
	tooLong := strings.Repeat("ж", 101)
	cases := []struct {
		name    string
		input   model.Contact
		field   string
		message string
	}{
		{"empty name", model.Contact{MobilePhone: "+1"}, "name", "name is required"},
		{"whitespace name", model.Contact{Name: "   ", MobilePhone: "+1"}, "name", "name is required"},
		{"empty phone", model.Contact{Name: "A"}, "mobilePhone", "mobilePhone is required"},
		{"whitespace phone", model.Contact{Name: "A", MobilePhone: "\t "}, "mobilePhone", "mobilePhone is required"},
		{"long name", model.Contact{Name: tooLong, MobilePhone: "+1"}, "name", "name must not exceed 100 characters"},
		{"long job title", model.Contact{Name: "A", MobilePhone: "+1", JobTitle: &tooLong}, "jobTitle", "jobTitle must not exceed 100 characters"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Create(s.ctx, tc.input)
			s.Require().ErrorIs(err, ErrValidation)
			var ve *ValidationError
			s.Require().ErrorAs(err, &ve)
			s.Equal(tc.field, ve.Field)
			s.Equal(tc.message, ve.Message)
		})
	}
}

// TestCreateMaxLengthCountsCharacters expects that 100 multi-byte characters are accepted.
func (s *ServiceSuite) TestCreateMaxLengthCountsCharacters() {
	name := strings.Repeat("ж", 100)
	s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	created, err := s.service.Create(s.ctx, model.Contact{Name: name, MobilePhone: "+7", JobTitle: ptr(name)})
	s.Require().NoError(err)
	s.Equal(name, created.Name)
}

func (s *ServiceSuite) TestCreateConstraintViolation() {
	s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).
		Return(errors.Join(store.ErrConstraint, errors.New("CHECK constraint failed")))

	_, err := s.service.Create(s.ctx, model.Contact{Name: "A", MobilePhone: "+1"})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestCreateStoreFailure() {
	boom := errors.New("connection refused")
	s.mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(boom)

	_, err := s.service.Create(s.ctx, model.Contact{Name: "A", MobilePhone: "+1"})
	s.ErrorIs(err, boom)
	s.NotErrorIs(err, ErrValidation)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.ContactWrites.WithLabelValues(metrics.OpCreate)))
}

func (s *ServiceSuite) TestGet() {
	stored := s.storedContact(29, s.now)
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(29)).Return(stored, nil)

	contact, err := s.service.Get(s.ctx, 29)
	s.Require().NoError(err)
	s.Equal(stored, contact)
}

func (s *ServiceSuite) TestGetNotFound() {
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(9999)).Return(model.Contact{}, store.ErrNotFound)

	_, err := s.service.Get(s.ctx, 9999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestList() {
	contacts := []model.Contact{s.storedContact(2, s.now), s.storedContact(1, s.now.Add(-time.Hour))}
	page := model.Page{Limit: 2, Offset: 4}
	s.mockStore.EXPECT().ListAll(gomock.Any(), page).Return(contacts, nil)

	listed, err := s.service.List(s.ctx, page)
	s.Require().NoError(err)
	s.Equal(contacts, listed)
}

// TestUpdate expects that all mutable fields are replaced, that the creation date is kept and that
// the update date is refreshed.
func (s *ServiceSuite) TestUpdate() {
	createdAt := s.now.Add(-48 * time.Hour)
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(17)).Return(s.storedContact(17, createdAt), nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *model.Contact) error {
			s.Equal(int64(17), c.Id)
			s.Equal("Rudi Völler", c.Name)
			s.Equal("+49 1234567890", c.MobilePhone)
			s.Nil(c.JobTitle)
			s.Nil(c.BirthDate)
			s.Equal(createdAt, c.CreatedDate)
			s.Equal(s.now.Truncate(time.Microsecond), c.UpdatedDate)
			return nil
		})

	updated, err := s.service.Update(s.ctx, 17, model.Contact{
		Id:          17,
		Name:        "Rudi Völler",
		MobilePhone: "+49 1234567890",
		CreatedDate: s.now,
	})
	s.Require().NoError(err)
	s.Equal(createdAt, updated.CreatedDate)
	s.True(updated.UpdatedDate.After(updated.CreatedDate))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ContactWrites.WithLabelValues(metrics.OpUpdate)))
}

// TestUpdateClockBehind expects that the update date never precedes the creation date.
func (s *ServiceSuite) TestUpdateClockBehind() {
	createdAt := s.now.Add(time.Hour)
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(3)).Return(s.storedContact(3, createdAt), nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := s.service.Update(s.ctx, 3, model.Contact{Id: 3, Name: "B", MobilePhone: "+2"})
	s.Require().NoError(err)
	s.Equal(createdAt, updated.UpdatedDate)
}

// TestUpdateIdMismatch expects a validation error before the store is touched.
func (s *ServiceSuite) TestUpdateIdMismatch() {
	_, err := s.service.Update(s.ctx, 17, model.Contact{Id: 18, Name: "B", MobilePhone: "+2"})
	s.ErrorIs(err, ErrValidation)

	_, err = s.service.Update(s.ctx, 17, model.Contact{Name: "B", MobilePhone: "+2"})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestUpdateValidation() {
	_, err := s.service.Update(s.ctx, 17, model.Contact{Id: 17, Name: " ", MobilePhone: "+2"})
	s.ErrorIs(err, ErrValidation)

	_, err = s.service.Update(s.ctx, 17, model.Contact{Id: 17, Name: "B", MobilePhone: ""})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestUpdateNotFound() {
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(9999)).Return(model.Contact{}, store.ErrNotFound)

	_, err := s.service.Update(s.ctx, 9999, model.Contact{Id: 9999, Name: "B", MobilePhone: "+2"})
	s.ErrorIs(err, ErrNotFound)
}

// TestUpdateConcurrentDelete expects not found when the row vanished between read and write.
func (s *ServiceSuite) TestUpdateConcurrentDelete() {
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(5)).Return(s.storedContact(5, s.now), nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(store.ErrConflict)
	s.mockStore.EXPECT().Exists(gomock.Any(), int64(5)).Return(false, nil)

	_, err := s.service.Update(s.ctx, 5, model.Contact{Id: 5, Name: "B", MobilePhone: "+2"})
	s.ErrorIs(err, ErrNotFound)
}

// TestUpdateConflictRowStillExists expects the conflict itself when the row is still there.
func (s *ServiceSuite) TestUpdateConflictRowStillExists() {
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(5)).Return(s.storedContact(5, s.now), nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(store.ErrConflict)
	s.mockStore.EXPECT().Exists(gomock.Any(), int64(5)).Return(true, nil)

	_, err := s.service.Update(s.ctx, 5, model.Contact{Id: 5, Name: "B", MobilePhone: "+2"})
	s.ErrorIs(err, store.ErrConflict)
	s.NotErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestUpdateStoreFailure() {
	boom := errors.New("connection reset")
	s.mockStore.EXPECT().GetByID(gomock.Any(), int64(5)).Return(s.storedContact(5, s.now), nil)
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(boom)

	_, err := s.service.Update(s.ctx, 5, model.Contact{Id: 5, Name: "B", MobilePhone: "+2"})
	s.ErrorIs(err, boom)
}

func (s *ServiceSuite) TestDelete() {
	s.mockStore.EXPECT().Delete(gomock.Any(), int64(42)).Return(nil)

	s.NoError(s.service.Delete(s.ctx, 42))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ContactWrites.WithLabelValues(metrics.OpDelete)))
}

func (s *ServiceSuite) TestDeleteNotFound() {
	s.mockStore.EXPECT().Delete(gomock.Any(), int64(9999)).Return(store.ErrNotFound)

	s.ErrorIs(s.service.Delete(s.ctx, 9999), ErrNotFound)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.ContactWrites.WithLabelValues(metrics.OpDelete)))
}
