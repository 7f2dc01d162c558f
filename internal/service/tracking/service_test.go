package tracking

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/pkg/logger"
)

type mockEmailRepo struct{ mock.Mock }

func (m *mockEmailRepo) CreateSend(ctx context.Context, send *model.EmailSend) error {
	args := m.Called(ctx, send)
	if send.ID == uuid.Nil {
		send.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockEmailRepo) GetSend(ctx context.Context, id uuid.UUID) (*model.EmailSend, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailSend), args.Error(1)
}

func (m *mockEmailRepo) RecordEvent(ctx context.Context, event *model.TrackingEvent) error {
	return m.Called(ctx, event).Error(0)
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

type mockEmailService struct{ mock.Mock }

func (m *mockEmailService) Send(ctx context.Context, to, subject, html string) error {
	return m.Called(ctx, to, subject, html).Error(0)
}

func newTestService() (*Service, *mockEmailRepo, *mockActivityRepo, *mockEmailService) {
	sends := &mockEmailRepo{}
	activities := &mockActivityRepo{}
	emails := &mockEmailService{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(sends, activities, nil, emails, "https://crm.salesdeck.io/", log)
	return svc, sends, activities, emails
}

func TestSendAppendsTrackingPixel(t *testing.T) {
	svc, sends, activities, emails := newTestService()
	ctx := context.Background()

	contactID := uuid.New()
	sends.On("CreateSend", ctx, mock.Anything).Return(nil).Once()
	activities.On("Create", ctx, mock.MatchedBy(func(a *model.Activity) bool {
		return a.Type == model.ActivityTypeEmailSent && *a.ContactID == contactID
	})).Return(nil).Once()

	var sentHTML string
	emails.On("Send", ctx, "lead@acme.com", "Hello", mock.Anything).
		Run(func(args mock.Arguments) { sentHTML = args.String(3) }).
		Return(nil).Once()

	send, err := svc.Send(ctx, &SendRequest{
		ContactID: &contactID,
		To:        "lead@acme.com",
		Subject:   "Hello",
		BodyHTML:  "<p>Hi there</p>",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sentHTML, "<p>Hi there</p>"))
	// The pixel URL is built from the trimmed base URL and the send ID.
	assert.Contains(t, sentHTML, "https://crm.salesdeck.io/api/v1/track/open/"+send.ID.String())
	emails.AssertExpectations(t)
}

func TestSendRequiresDealOrContact(t *testing.T) {
	svc, sends, _, _ := newTestService()

	_, err := svc.Send(context.Background(), &SendRequest{
		To: "lead@acme.com", Subject: "Hello", BodyHTML: "<p>Hi</p>",
	})

	assert.Error(t, err)
	sends.AssertNotCalled(t, "CreateSend", mock.Anything, mock.Anything)
}

func TestRecordOpenAppendsOpenActivity(t *testing.T) {
	svc, sends, activities, _ := newTestService()
	ctx := context.Background()

	contactID := uuid.New()
	send := &model.EmailSend{ID: uuid.New(), ContactID: &contactID, Subject: "Hello"}

	sends.On("GetSend", ctx, send.ID).Return(send, nil).Once()
	sends.On("RecordEvent", ctx, mock.MatchedBy(func(e *model.TrackingEvent) bool {
		return e.Kind == model.TrackingKindOpen && e.EmailSendID == send.ID
	})).Return(nil).Once()
	activities.On("Create", ctx, mock.MatchedBy(func(a *model.Activity) bool {
		return a.Type == model.ActivityTypeEmailOpened
	})).Return(nil).Once()

	require.NoError(t, svc.RecordOpen(ctx, send.ID))
	sends.AssertExpectations(t)
	activities.AssertExpectations(t)
}

func TestRecordClickReturnsDestination(t *testing.T) {
	svc, sends, activities, _ := newTestService()
	ctx := context.Background()

	contactID := uuid.New()
	send := &model.EmailSend{ID: uuid.New(), ContactID: &contactID}

	sends.On("GetSend", ctx, send.ID).Return(send, nil).Once()
	sends.On("RecordEvent", ctx, mock.MatchedBy(func(e *model.TrackingEvent) bool {
		return e.Kind == model.TrackingKindClick && *e.URL == "https://acme.com/pricing"
	})).Return(nil).Once()
	activities.On("Create", ctx, mock.MatchedBy(func(a *model.Activity) bool {
		return a.Type == model.ActivityTypeLinkClicked
	})).Return(nil).Once()

	url, err := svc.RecordClick(ctx, send.ID, "https://acme.com/pricing")

	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/pricing", url)
}

func TestRecordClickMissingURL(t *testing.T) {
	svc, sends, _, _ := newTestService()

	_, err := svc.RecordClick(context.Background(), uuid.New(), "")

	assert.Error(t, err)
	sends.AssertNotCalled(t, "GetSend", mock.Anything, mock.Anything)
}
