package automation

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salesdeck/crm-api/internal/config"
	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func testConfig() config.AutomationConfig {
	return config.AutomationConfig{
		StaleAfter:      72 * time.Hour,
		EscalateAfter:   120 * time.Hour,
		ColdPoolAfter:   240 * time.Hour,
		AssignmentBatch: 50,
	}
}

// newMockDB returns a sqlx handle backed by sqlmock so the engine's
// per-deal transactions run against scripted Begin/Commit pairs.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

type mockDealRepo struct{ mock.Mock }

func (m *mockDealRepo) Create(ctx context.Context, deal *model.Deal) error {
	return m.Called(ctx, deal).Error(0)
}

func (m *mockDealRepo) Get(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deal), args.Error(1)
}

func (m *mockDealRepo) Update(ctx context.Context, deal *model.Deal) error {
	return m.Called(ctx, deal).Error(0)
}

func (m *mockDealRepo) List(ctx context.Context, filters *model.DealFilters) ([]*model.Deal, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *mockDealRepo) UpdateScore(ctx context.Context, id uuid.UUID, score int, at time.Time) error {
	return m.Called(ctx, id, score, at).Error(0)
}

func (m *mockDealRepo) ListUnassignedLeads(ctx context.Context, limit int) ([]*model.Deal, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *mockDealRepo) ListStaleCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *mockDealRepo) ListEscalationCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *mockDealRepo) ListColdPoolCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *mockDealRepo) ListDueFollowUps(ctx context.Context, now time.Time) ([]*model.Deal, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]*model.Deal), args.Error(1)
}

func (m *mockDealRepo) AssignOwnerTx(ctx context.Context, tx *sqlx.Tx, dealID, ownerID uuid.UUID) error {
	return m.Called(ctx, tx, dealID, ownerID).Error(0)
}

func (m *mockDealRepo) MarkStaleTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) error {
	return m.Called(ctx, tx, dealID).Error(0)
}

func (m *mockDealRepo) StampEscalationTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, at time.Time) error {
	return m.Called(ctx, tx, dealID, at).Error(0)
}

func (m *mockDealRepo) MoveToColdPoolTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) error {
	return m.Called(ctx, tx, dealID).Error(0)
}

func (m *mockDealRepo) MarkFollowUpNotified(ctx context.Context, dealID uuid.UUID) error {
	return m.Called(ctx, dealID).Error(0)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *mockUserRepo) ListAssignable(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *mockUserRepo) TouchLastAssignedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, tx, id, at).Error(0)
}

type mockActivityRepo struct{ mock.Mock }

func (m *mockActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *mockActivityRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, activity *model.Activity) error {
	return m.Called(ctx, tx, activity).Error(0)
}

func (m *mockActivityRepo) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*model.Activity, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]*model.Activity), args.Error(1)
}

func (m *mockActivityRepo) ListByContact(ctx context.Context, contactID uuid.UUID) ([]*model.Activity, error) {
	args := m.Called(ctx, contactID)
	return args.Get(0).([]*model.Activity), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, notifType, title, body string, dealID *uuid.UUID) {
	m.Called(ctx, userID, notifType, title, body, dealID)
}

func (m *mockNotifier) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *mockNotifier) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotifier) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockEmailService struct{ mock.Mock }

func (m *mockEmailService) Send(ctx context.Context, to, subject, html string) error {
	return m.Called(ctx, to, subject, html).Error(0)
}

type engineFixture struct {
	engine     *Engine
	sqlMock    sqlmock.Sqlmock
	deals      *mockDealRepo
	users      *mockUserRepo
	activities *mockActivityRepo
	notifier   *mockNotifier
	emails     *mockEmailService
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db, sqlMock := newMockDB(t)

	f := &engineFixture{
		sqlMock:    sqlMock,
		deals:      &mockDealRepo{},
		users:      &mockUserRepo{},
		activities: &mockActivityRepo{},
		notifier:   &mockNotifier{},
		emails:     &mockEmailService{},
	}
	f.engine = NewEngine(db, f.deals, f.users, f.activities, f.notifier, f.emails, testConfig(), testLogger(), nil)
	return f
}

func (f *engineFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.deals.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.activities.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.emails.AssertExpectations(t)
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}
