package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/service"
)

// MockEmailService is a mock implementation of service.IEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, user *models.User, resetURL string) error {
	args := m.Called(ctx, user, resetURL)
	return args.Error(0)
}

func (m *MockEmailService) SendContactNotification(ctx context.Context, msg service.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockEmailService) SendContactConfirmation(ctx context.Context, msg service.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
