package deal

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/pkg/logger"
)

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

type mockEvaluator struct{ mock.Mock }

func (m *mockEvaluator) Evaluate(ctx context.Context, deal *model.Deal) []model.RuleMatch {
	args := m.Called(ctx, deal)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.RuleMatch)
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

type fixture struct {
	svc        *Service
	deals      *mockDealRepo
	activities *mockActivityRepo
	users      *mockUserRepo
	evaluator  *mockEvaluator
	notifier   *mockNotifier
	emails     *mockEmailService
}

func newFixture() *fixture {
	f := &fixture{
		deals:      &mockDealRepo{},
		activities: &mockActivityRepo{},
		users:      &mockUserRepo{},
		evaluator:  &mockEvaluator{},
		notifier:   &mockNotifier{},
		emails:     &mockEmailService{},
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f.svc = NewService(f.deals, f.activities, f.users, f.evaluator, f.notifier, f.emails, log)
	return f
}

func TestCreateDefaultsToLeadStageAndEvaluatesRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.deals.On("Create", ctx, mock.MatchedBy(func(d *model.Deal) bool {
		return d.Stage == model.StageLead && !d.LastActivityAt.IsZero()
	})).Return(nil).Once()
	f.activities.On("Create", ctx, mock.MatchedBy(func(a *model.Activity) bool {
		return a.Type == model.ActivityTypeSystem && a.Content == "Deal created"
	})).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return(nil).Once()

	d, err := f.svc.Create(ctx, &model.CreateDealRequest{Name: "Acme", Value: 1000}, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StageLead, d.Stage)
	f.deals.AssertExpectations(t)
	f.activities.AssertExpectations(t)
	f.evaluator.AssertExpectations(t)
}

func TestCreateKeepsExplicitStage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.deals.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.activities.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return(nil).Once()

	d, err := f.svc.Create(ctx, &model.CreateDealRequest{Name: "Acme", Stage: "Proposal"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Proposal", d.Stage)
}

func TestUpdateStageChangeAppendsActivityAndRefreshesRecency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	existing := &model.Deal{
		Base:           model.Base{ID: uuid.New()},
		Name:           "Acme",
		Stage:          "Lead",
		LastActivityAt: time.Now().Add(-96 * time.Hour),
	}
	f.deals.On("Get", ctx, existing.ID).Return(existing, nil).Once()
	f.deals.On("Update", ctx, mock.Anything).Return(nil).Once()
	f.activities.On("Create", ctx, mock.MatchedBy(func(a *model.Activity) bool {
		return a.Type == model.ActivityTypeStageChange
	})).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return(nil).Once()

	stage := "Negotiation"
	d, err := f.svc.Update(ctx, existing.ID, &model.UpdateDealRequest{Stage: &stage}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Negotiation", d.Stage)
	// A stage move counts as activity and pulls the deal out of the
	// staleness window.
	assert.WithinDuration(t, time.Now(), d.LastActivityAt, time.Minute)
	f.activities.AssertExpectations(t)
}

func TestUpdateSameStageAppendsNoActivity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	existing := &model.Deal{Base: model.Base{ID: uuid.New()}, Name: "Acme", Stage: "Lead"}
	f.deals.On("Get", ctx, existing.ID).Return(existing, nil).Once()
	f.deals.On("Update", ctx, mock.Anything).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return(nil).Once()

	value := 2000.0
	_, err := f.svc.Update(ctx, existing.ID, &model.UpdateDealRequest{Value: &value}, nil)

	require.NoError(t, err)
	f.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateReschedulingFollowUpResetsNotifiedFlag(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	old := time.Now().Add(-24 * time.Hour)
	existing := &model.Deal{
		Base:             model.Base{ID: uuid.New()},
		Name:             "Acme",
		Stage:            "Lead",
		NextFollowUpAt:   &old,
		FollowUpNotified: true,
	}
	f.deals.On("Get", ctx, existing.ID).Return(existing, nil).Once()
	f.deals.On("Update", ctx, mock.Anything).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return(nil).Once()

	next := time.Now().Add(48 * time.Hour)
	d, err := f.svc.Update(ctx, existing.ID, &model.UpdateDealRequest{NextFollowUpAt: &next}, nil)

	require.NoError(t, err)
	assert.False(t, d.FollowUpNotified)
	assert.Equal(t, next, *d.NextFollowUpAt)
}

func TestUpdateUnchangedFollowUpKeepsNotifiedFlag(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	scheduled := time.Now().Add(24 * time.Hour)
	existing := &model.Deal{
		Base:             model.Base{ID: uuid.New()},
		Name:             "Acme",
		Stage:            "Lead",
		NextFollowUpAt:   &scheduled,
		FollowUpNotified: true,
	}
	f.deals.On("Get", ctx, existing.ID).Return(existing, nil).Once()
	f.deals.On("Update", ctx, mock.Anything).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return(nil).Once()

	same := scheduled
	d, err := f.svc.Update(ctx, existing.ID, &model.UpdateDealRequest{NextFollowUpAt: &same}, nil)

	require.NoError(t, err)
	assert.True(t, d.FollowUpNotified)
}

func TestApplyWorkflowChangeStageAction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	target := "Negotiation"
	f.deals.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.activities.On("Create", ctx, mock.Anything).Return(nil).Times(2)
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return([]model.RuleMatch{{
		RuleID:      uuid.New(),
		RuleName:    "hot lead",
		ActionType:  model.ActionChangeStage,
		ActionValue: &target,
	}}).Once()
	// The rule's stage move is persisted in a second write.
	f.deals.On("Update", ctx, mock.MatchedBy(func(d *model.Deal) bool {
		return d.Stage == target
	})).Return(nil).Once()

	d, err := f.svc.Create(ctx, &model.CreateDealRequest{Name: "Acme", Value: 90000}, nil)

	require.NoError(t, err)
	assert.Equal(t, target, d.Stage)
	f.deals.AssertExpectations(t)
}

func TestApplyWorkflowAssignToAction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	newOwner := uuid.New()
	value := newOwner.String()
	f.deals.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.activities.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return([]model.RuleMatch{{
		RuleName:    "route to specialist",
		ActionType:  model.ActionAssignTo,
		ActionValue: &value,
	}}).Once()
	f.deals.On("Update", ctx, mock.Anything).Return(nil).Once()

	d, err := f.svc.Create(ctx, &model.CreateDealRequest{Name: "Acme"}, nil)

	require.NoError(t, err)
	require.NotNil(t, d.OwnerID)
	assert.Equal(t, newOwner, *d.OwnerID)
}

func TestApplyWorkflowCCManagerEmailsManager(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	manager := &model.User{Base: model.Base{ID: uuid.New()}, Name: "mary", Email: "mary@salesdeck.io"}
	owner := &model.User{Base: model.Base{ID: uuid.New()}, Name: "alice", Email: "alice@salesdeck.io", ManagerID: &manager.ID}

	f.deals.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.activities.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.evaluator.On("Evaluate", ctx, mock.Anything).Return([]model.RuleMatch{{
		RuleName:   "big deal",
		ActionType: model.ActionCCManager,
	}}).Once()
	f.users.On("Get", ctx, owner.ID).Return(owner, nil).Once()
	f.users.On("Get", ctx, manager.ID).Return(manager, nil).Once()
	f.emails.On("Send", ctx, manager.Email, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.Create(ctx, &model.CreateDealRequest{Name: "Acme", OwnerID: &owner.ID}, nil)

	require.NoError(t, err)
	f.emails.AssertExpectations(t)
}
