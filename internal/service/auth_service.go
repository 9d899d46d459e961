package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/repository"
)

// AuthService coordinates login, logout, registration and password reset
// flows across both realms.
type AuthService struct {
	customers  repository.CustomerRepository
	admins     repository.AdminRepository
	consumed   repository.ResetConsumptionStore
	sessions   *auth.SessionManager
	resets     *auth.ResetTokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	CustomerRepo     repository.CustomerRepository
	AdminRepo        repository.AdminRepository
	ConsumptionStore repository.ResetConsumptionStore
	Sessions         *auth.SessionManager
	Resets           *auth.ResetTokenManager
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		customers:  deps.CustomerRepo,
		admins:     deps.AdminRepo,
		consumed:   deps.ConsumptionStore,
		sessions:   deps.Sessions,
		resets:     deps.Resets,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterCustomer creates a new customer account and issues a session.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*domain.Customer, string, time.Time, error) {
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, errors.New("email already registered")
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.CustomerStatusActive,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventCustomerRegistered, domain.RealmCustomer, customer.ID,
		events.CustomerRegisteredPayload{Email: customer.Email, Name: customer.Name})

	token, exp, err := s.sessions.Issue(customer.ID, domain.RealmCustomer)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return customer, token, exp, nil
}

// LoginCustomer authenticates a customer. Unknown email, wrong password and
// suspended account all collapse to ErrInvalidCredentials: the caller must
// not be able to tell which applied.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*domain.Customer, string, time.Time, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, auth.ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, auth.ErrInvalidCredentials
	}
	if customer.Status != domain.CustomerStatusActive {
		s.logger.Debug("login rejected for inactive customer", zap.String("customer_id", customer.ID))
		return nil, "", time.Time{}, auth.ErrInvalidCredentials
	}

	token, exp, err := s.sessions.Issue(customer.ID, domain.RealmCustomer)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return customer, token, exp, nil
}

// LoginAdmin authenticates a back-office operator by username.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (*domain.Admin, string, time.Time, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, auth.ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, auth.ErrInvalidCredentials
	}
	if !admin.Active {
		s.logger.Debug("login rejected for inactive admin", zap.String("admin_id", admin.ID))
		return nil, "", time.Time{}, auth.ErrInvalidCredentials
	}

	token, exp, err := s.sessions.Issue(admin.ID, domain.RealmAdmin)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return admin, token, exp, nil
}

// RequestPasswordReset issues a reset token for the account behind the
// email, if any, and hands it to the mail worker. It reports success either
// way so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	realm := domain.RealmCustomer
	subjectID := ""

	if customer, err := s.customers.GetByEmail(ctx, email); err == nil {
		subjectID = customer.ID
	} else if err == pgx.ErrNoRows {
		admin, adminErr := s.admins.GetByEmail(ctx, email)
		if adminErr == pgx.ErrNoRows {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		if adminErr != nil {
			return adminErr
		}
		realm = domain.RealmAdmin
		subjectID = admin.ID
	} else {
		return err
	}

	token, expiresAt, err := s.resets.Issue(subjectID, realm)
	if err != nil {
		return err
	}

	s.publish(ctx, events.EventPasswordResetRequested, realm, subjectID,
		events.PasswordResetRequestedPayload{Email: email, Token: token, ExpiresAt: expiresAt})
	return nil
}

// ConfirmPasswordReset validates the presented token, consumes it and
// commits the new password hash. The consumption marker is written before
// the hash: a token that burned on a failed update stays burned.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	claims, err := s.resets.Validate(tokenStr)
	if err != nil {
		return err
	}

	ok, err := s.consumed.Consume(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug("replayed reset token rejected", zap.String("token_id", claims.ID))
		return auth.ErrTokenExpired
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	realm := domain.Realm(claims.Realm)
	var email string
	switch realm {
	case domain.RealmCustomer:
		customer, err := s.customers.GetByID(ctx, claims.Subject)
		if err != nil {
			return err
		}
		if err := s.customers.UpdatePasswordHash(ctx, customer.ID, hash); err != nil {
			return err
		}
		email = customer.Email
	case domain.RealmAdmin:
		admin, err := s.admins.GetByID(ctx, claims.Subject)
		if err != nil {
			return err
		}
		if err := s.admins.UpdatePasswordHash(ctx, admin.ID, hash); err != nil {
			return err
		}
		email = admin.Email
	default:
		return auth.ErrMalformedToken
	}

	s.publish(ctx, events.EventPasswordChanged, realm, claims.Subject,
		events.PasswordChangedPayload{Email: email})
	return nil
}

// ChangePassword verifies the current password before updating to the new
// hash, for an already-authenticated principal.
func (s *AuthService) ChangePassword(ctx context.Context, realm domain.Realm, subjectID, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch realm {
	case domain.RealmCustomer:
		customer, err := s.customers.GetByID(ctx, subjectID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(customer.PasswordHash, currentPassword); err != nil {
			return auth.ErrInvalidCredentials
		}
		if err := s.customers.UpdatePasswordHash(ctx, customer.ID, hash); err != nil {
			return err
		}
		s.publish(ctx, events.EventPasswordChanged, realm, subjectID,
			events.PasswordChangedPayload{Email: customer.Email})
		return nil
	case domain.RealmAdmin:
		admin, err := s.admins.GetByID(ctx, subjectID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(admin.PasswordHash, currentPassword); err != nil {
			return auth.ErrInvalidCredentials
		}
		if err := s.admins.UpdatePasswordHash(ctx, admin.ID, hash); err != nil {
			return err
		}
		s.publish(ctx, events.EventPasswordChanged, realm, subjectID,
			events.PasswordChangedPayload{Email: admin.Email})
		return nil
	default:
		return errors.New("unknown realm")
	}
}

// SessionManager exposes the session manager for transport usage.
func (s *AuthService) SessionManager() *auth.SessionManager {
	return s.sessions
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, realm domain.Realm, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Realm:     realm,
		SubjectID: subjectID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
