package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salesdeck/crm-api/internal/model"
)

func makeLead(name string) *model.Deal {
	return &model.Deal{
		Base:  model.Base{ID: uuid.New()},
		Name:  name,
		Stage: model.StageLead,
	}
}

func makeRep(name string) *model.User {
	return &model.User{
		Base:   model.Base{ID: uuid.New()},
		Name:   name,
		Email:  name + "@salesdeck.io",
		Role:   model.UserRoleRep,
		Active: true,
	}
}

func TestAssignLeadsRoundRobin(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	leads := []*model.Deal{makeLead("L1"), makeLead("L2"), makeLead("L3"), makeLead("L4"), makeLead("L5")}
	reps := []*model.User{makeRep("alice"), makeRep("bob")}

	f.deals.On("ListUnassignedLeads", ctx, 50).Return(leads, nil)
	f.users.On("ListAssignable", ctx).Return(reps, nil)

	// Leads cycle through candidates in order: alice, bob, alice, ...
	for i, lead := range leads {
		lead := lead
		rep := reps[i%2]
		f.sqlMock.ExpectBegin()
		f.deals.On("AssignOwnerTx", ctx, mock.Anything, lead.ID, rep.ID).Return(nil).Once()
		f.users.On("TouchLastAssignedTx", ctx, mock.Anything, rep.ID, mock.Anything).Return(nil).Once()
		f.activities.On("CreateTx", ctx, mock.Anything, mock.MatchedBy(func(a *model.Activity) bool {
			return a.Type == model.ActivityTypeSystem && *a.DealID == lead.ID
		})).Return(nil).Once()
		f.sqlMock.ExpectCommit()
		f.notifier.On("Notify", ctx, rep.ID, model.NotificationTypeLeadAssigned,
			mock.Anything, mock.Anything, &lead.ID).Once()
	}

	require.NoError(t, f.engine.AssignLeads(ctx))
	f.assertExpectations(t)
}

func TestAssignLeadsNoCandidates(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.deals.On("ListUnassignedLeads", ctx, 50).Return([]*model.Deal{makeLead("L1")}, nil)
	f.users.On("ListAssignable", ctx).Return([]*model.User{}, nil)

	// No assignable users: leads stay queued, no transaction opens.
	require.NoError(t, f.engine.AssignLeads(ctx))
	f.assertExpectations(t)
}

func TestAssignLeadsNoLeads(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.deals.On("ListUnassignedLeads", ctx, 50).Return([]*model.Deal{}, nil)

	require.NoError(t, f.engine.AssignLeads(ctx))
	f.users.AssertNotCalled(t, "ListAssignable", mock.Anything)
	f.assertExpectations(t)
}

func TestAssignLeadsOneFailureDoesNotStopTheBatch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	leads := []*model.Deal{makeLead("L1"), makeLead("L2")}
	rep := makeRep("alice")

	f.deals.On("ListUnassignedLeads", ctx, 50).Return(leads, nil)
	f.users.On("ListAssignable", ctx).Return([]*model.User{rep}, nil)

	// First lead was grabbed concurrently; its transaction rolls back.
	f.sqlMock.ExpectBegin()
	f.deals.On("AssignOwnerTx", ctx, mock.Anything, leads[0].ID, rep.ID).
		Return(errors.New("deal already assigned")).Once()
	f.sqlMock.ExpectRollback()

	f.sqlMock.ExpectBegin()
	f.deals.On("AssignOwnerTx", ctx, mock.Anything, leads[1].ID, rep.ID).Return(nil).Once()
	f.users.On("TouchLastAssignedTx", ctx, mock.Anything, rep.ID, mock.Anything).Return(nil).Once()
	f.activities.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	f.sqlMock.ExpectCommit()
	f.notifier.On("Notify", ctx, rep.ID, model.NotificationTypeLeadAssigned,
		mock.Anything, mock.Anything, &leads[1].ID).Once()

	require.NoError(t, f.engine.AssignLeads(ctx))

	// The failed lead must not produce a notification.
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	f.assertExpectations(t)
}

func TestAssignLeadsListError(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.deals.On("ListUnassignedLeads", ctx, 50).Return([]*model.Deal(nil), errors.New("db down"))

	err := f.engine.AssignLeads(ctx)
	assert.Error(t, err)
	f.assertExpectations(t)
}
