// Code generated by mockery-style hand assembly. DO NOT regenerate by hand
// without checking callers; kept in the shape `mockery v2` emits for
// hook.WebhookRepository / hook.EventRepository / hook.ErrorClassificationRepository
// so existing test suites do not need to change if mockery is wired in later.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/timothy-choi/HookHub/hook"
)

// WebhookRepository is an autogenerated mock type for the WebhookRepository type.
type WebhookRepository struct {
	mock.Mock
}

func NewWebhookRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *WebhookRepository {
	m := &WebhookRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *WebhookRepository) FindByID(ctx context.Context, id string) (hook.Webhook, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(hook.Webhook), args.Error(1)
}

func (m *WebhookRepository) FindAll(ctx context.Context) ([]hook.Webhook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hook.Webhook), args.Error(1)
}

func (m *WebhookRepository) FindByURL(ctx context.Context, url string) (hook.Webhook, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(hook.Webhook), args.Error(1)
}

func (m *WebhookRepository) Save(ctx context.Context, webhook hook.Webhook) error {
	args := m.Called(ctx, webhook)
	return args.Error(0)
}

// EventRepository is an autogenerated mock type for the EventRepository type.
type EventRepository struct {
	mock.Mock
}

func NewEventRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *EventRepository {
	m := &EventRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventRepository) FindByID(ctx context.Context, id string) (hook.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(hook.Event), args.Error(1)
}

func (m *EventRepository) FindByWebhookID(ctx context.Context, webhookID string) ([]hook.Event, error) {
	args := m.Called(ctx, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hook.Event), args.Error(1)
}

func (m *EventRepository) FindByStatus(ctx context.Context, status hook.Status) ([]hook.Event, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hook.Event), args.Error(1)
}

func (m *EventRepository) Save(ctx context.Context, event hook.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// ErrorClassificationRepository is an autogenerated mock type for the
// ErrorClassificationRepository type.
type ErrorClassificationRepository struct {
	mock.Mock
}

func NewErrorClassificationRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *ErrorClassificationRepository {
	m := &ErrorClassificationRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ErrorClassificationRepository) Save(ctx context.Context, classification hook.ErrorClassification) error {
	args := m.Called(ctx, classification)
	return args.Error(0)
}

func (m *ErrorClassificationRepository) FindByWebhookIDOrderByCreatedAtDesc(ctx context.Context, webhookID string) ([]hook.ErrorClassification, error) {
	args := m.Called(ctx, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]hook.ErrorClassification), args.Error(1)
}

// Repository is an autogenerated mock type composing the three sub-repositories.
type Repository struct {
	WebhookRepo        *WebhookRepository
	EventRepo          *EventRepository
	ClassificationRepo *ErrorClassificationRepository
}

func NewRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *Repository {
	return &Repository{
		WebhookRepo:        NewWebhookRepository(t),
		EventRepo:          NewEventRepository(t),
		ClassificationRepo: NewErrorClassificationRepository(t),
	}
}

func (r *Repository) Webhooks() hook.WebhookRepository               { return r.WebhookRepo }
func (r *Repository) Events() hook.EventRepository                   { return r.EventRepo }
func (r *Repository) Classifications() hook.ErrorClassificationRepository { return r.ClassificationRepo }

// Enqueuer is an autogenerated mock type for the hook.Enqueuer type.
type Enqueuer struct {
	mock.Mock
}

func NewEnqueuer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Enqueuer {
	m := &Enqueuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Enqueuer) Enqueue(event hook.Event) bool {
	args := m.Called(event)
	return args.Bool(0)
}
