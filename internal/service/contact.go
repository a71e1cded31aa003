package service

import (
	"context"
	"strings"

	"github.com/pageza/pantrypal/backend/internal/models"
)

type ContactService struct {
	email IEmailService
}

func NewContactService(email IEmailService) *ContactService {
	return &ContactService{email: email}
}

// Send notifies the site owner and mails the sender a copy.
func (s *ContactService) Send(ctx context.Context, msg ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return models.NewValidationError("All fields are required")
	}
	if err := validateEmail(msg.Email); err != nil {
		return err
	}

	if err := s.email.SendContactNotification(ctx, msg); err != nil {
		return models.NewInternalError(err)
	}
	if err := s.email.SendContactConfirmation(ctx, msg); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
