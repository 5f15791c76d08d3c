package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/webaudit360/internal/audit"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mock.Mock
}

// Create is the mock implementation of the Create method.
func (m *MockProvider) Create(ctx context.Context, url string, fetchedAt time.Time, rawDocument string) (audit.Job, error) {
	args := m.Called(ctx, url, fetchedAt, rawDocument)
	return args.Get(0).(audit.Job), args.Error(1) //nolint:wrapcheck
}

// Get is the mock implementation of the Get method.
func (m *MockProvider) Get(ctx context.Context, id int64) (audit.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(audit.Job), args.Error(1) //nolint:wrapcheck
}

// Ping is the mock implementation of the Ping method.
func (m *MockProvider) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0) //nolint:wrapcheck
}

// Close is the mock implementation of the Close method.
func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck
}
