package identity

import (
	"errors"
	"fmt"
	"log"
	"time"

	"miromiro/internal/mail"
	"miromiro/internal/models"
	"miromiro/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider implements Provider on top of the relational store. Passwords
// are bcrypt-hashed, sessions are HS256 JWTs carrying both user_id and sub.
type LocalProvider struct {
	userRepo   repositories.UserRepository
	mailer     mail.Mailer
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewLocalProvider creates a new LocalProvider.
func NewLocalProvider(userRepo repositories.UserRepository, mailer mail.Mailer, jwtSecret string) *LocalProvider {
	return &LocalProvider{
		userRepo:   userRepo,
		mailer:     mailer,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// SignUp creates a new account carrying the given metadata and sends the
// confirmation email. The confirmation send is the provider's own concern: a
// transport failure is logged, not surfaced, so the account still exists and
// the mail can be re-requested via ResendConfirmation.
func (p *LocalProvider) SignUp(params SignUpParams) (*models.User, error) {
	if existing, err := p.userRepo.GetByEmail(params.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("user already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    params.Email,
		Password: string(hashedPassword),
		Metadata: params.Metadata,
	}
	if err := p.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := p.sendConfirmation(user, params.RedirectTo); err != nil {
		log.Printf("Failed to send confirmation email to %s: %v", user.Email, err)
	}

	return user, nil
}

// ResendConfirmation re-sends the confirmation email for an unconfirmed
// account.
func (p *LocalProvider) ResendConfirmation(email, redirectTo string) error {
	user, err := p.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("user not found")
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.ConfirmedAt != nil {
		return fmt.Errorf("email already confirmed")
	}
	return p.sendConfirmation(user, redirectTo)
}

// PasswordLogin verifies the credentials and issues a session token. The
// error is deliberately uniform so callers cannot probe which emails exist.
func (p *LocalProvider) PasswordLogin(email, password string) (string, *models.User, error) {
	user, err := p.userRepo.GetByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("invalid login credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid login credentials")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"sub":     user.ID,
		"email":   user.Email,
		"exp":     now.Add(p.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})
	tokenString, err := token.SignedString(p.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	user.LastSignInAt = &now
	if err := p.userRepo.Update(user); err != nil {
		log.Printf("Failed to record last sign-in for %s: %v", user.ID, err)
	}

	return tokenString, user, nil
}

// UserBySession validates the session token and loads its account. The user
// id may arrive in either the user_id or the sub claim.
func (p *LocalProvider) UserBySession(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, fmt.Errorf("session token has no user id")
	}

	return p.userRepo.GetByID(userID)
}

// UserByID fetches the authoritative account record.
func (p *LocalProvider) UserByID(id string) (*models.User, error) {
	return p.userRepo.GetByID(id)
}

// sendConfirmation mints a short-lived confirmation token and mails the
// confirm link. The redirect target's confirm page exchanges the token.
func (p *LocalProvider) sendConfirmation(user *models.User, redirectTo string) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     user.ID,
		"purpose": "email_confirm",
		"exp":     time.Now().Add(p.tokenDurat).Unix(),
	})
	tokenString, err := token.SignedString(p.jwtSecret)
	if err != nil {
		return fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	confirmURL := fmt.Sprintf("%s?token=%s", redirectTo, tokenString)
	return p.mailer.Send(mail.ConfirmationMessage(user.Email, confirmURL))
}
