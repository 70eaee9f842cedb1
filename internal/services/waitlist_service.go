package services

import (
	"errors"
	"fmt"
	"time"

	"miromiro/internal/apperr"
	"miromiro/internal/mail"
	"miromiro/internal/models"
	"miromiro/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// WaitlistService handles waitlist signups and their notification emails.
type WaitlistService struct {
	waitlistRepo  repositories.WaitlistRepository
	mailer        mail.Mailer
	operatorEmail string
}

// NewWaitlistService creates a new WaitlistService. operatorEmail receives a
// notification for every signup.
func NewWaitlistService(waitlistRepo repositories.WaitlistRepository, mailer mail.Mailer, operatorEmail string) *WaitlistService {
	return &WaitlistService{
		waitlistRepo:  waitlistRepo,
		mailer:        mailer,
		operatorEmail: operatorEmail,
	}
}

// Join inserts the normalized email into the waitlist and sends the welcome
// and operator-notification emails. Both sends are awaited; if either fails
// the request fails even though the row is already committed. There is no
// compensating delete.
//
// The existence check and the insert are separate statements. Two
// simultaneous submissions can both pass the check; the unique index on
// email resolves that race by failing the second insert.
func (s *WaitlistService) Join(email string) (*models.WaitlistEntry, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}

	existing, err := s.waitlistRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Provider(fiber.StatusInternalServerError, "Failed to check waitlist", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("This email is already on the waitlist")
	}

	entry := &models.WaitlistEntry{Email: email}
	if err := s.waitlistRepo.Create(entry); err != nil {
		return nil, apperr.Provider(fiber.StatusInternalServerError, "Failed to join waitlist", err)
	}

	if err := s.mailer.Send(mail.WelcomeMessage(email)); err != nil {
		return nil, apperr.Provider(fiber.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err), err)
	}
	if err := s.mailer.Send(mail.OperatorNotification(s.operatorEmail, email, time.Now())); err != nil {
		return nil, apperr.Provider(fiber.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err), err)
	}

	return entry, nil
}
