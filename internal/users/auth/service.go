// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string carrying the user's
	// resolved role set.
	GenerateAccessToken(userID, username string, roles []string, timeToLive time.Duration) (string, error)
}

// RoleSource resolves and seeds role membership. Satisfied by the role service.
type RoleSource interface {
	// ResolveStrings returns the account's roles as claim-ready strings.
	ResolveStrings(ctx context.Context, userID string) ([]string, error)

	// Grant attaches a non-admin role to an account.
	Grant(ctx context.Context, userID string, role sec.Role) error
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed carefully.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	roles             RoleSource
	tokenProvider     TokenProvider
	logger            *slog.Logger
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	roles RoleSource,
	tokenProv TokenProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		roles:             roles,
		tokenProvider:     tokenProv,
		logger:            logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Every new account starts as a learner; the mentor role arrives
later through profile onboarding and admin only through an explicit grant
by another admin.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity with its initial role set
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict error.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.Must(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Every account begins as a learner.
	if err := service.roles.Grant(context, user.ID, sec.RoleLearner); err != nil {
		return nil, fmt.Errorf("auth_service_seed_role_failed: %w", err)
	}
	user.Roles = []string{string(sec.RoleLearner)}

	service.logger.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login    string // Can be Username or Email
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity with a constant-time password comparison,
resolves the account's current role set into the access token, and opens a
refresh session keyed by the token's hash.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	// Flexible login: look up by Email or Username
	user, err := service.userRepository.FindByEmail(context, input.Login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, input.Login)
	}

	// Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// bcrypt compares in constant time to prevent timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	session, err := service.openSession(context, user)
	if err != nil {
		return nil, err
	}

	service.logger.Info("user_logged_in",
		slog.String("user_id", user.ID),
		slog.Any("roles", user.Roles),
	)

	return session, nil
}

/*
Logout permanently revokes the presented refresh session.

Description: Idempotent: an already-expired or unknown token still counts
as a successful logout.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: Revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	tokenHash := sec.HashToken(refreshToken)

	userID, err := service.sessionRepository.Get(context, tokenHash)
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Delete(context, tokenHash); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.logger.Info("user_logged_out", slog.String("user_id", userID))
	return nil
}

// # Session Management

/*
RefreshSession implements the refresh token rotation mechanism.

Description: Verifies the existing refresh token, revokes it to prevent
reuse, re-resolves the role set (so grants and revokes land here), and
issues a fresh pair of rotated tokens.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *LoginSession: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken string) (*LoginSession, error) {
	tokenHash := sec.HashToken(refreshToken)

	userID, err := service.sessionRepository.Get(context, tokenHash)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Rotation: revoke the old session to prevent replay attacks.
	if err := service.sessionRepository.Delete(context, tokenHash); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	return service.openSession(context, user)
}

// openSession resolves the current role set, mints the token pair, and
// registers the refresh session.
func (service *Service) openSession(context context.Context, user *User) (*LoginSession, error) {
	roles, err := service.roles.ResolveStrings(context, user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_resolve_roles_failed: %w", err)
	}
	user.Roles = roles

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, roles, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(RefreshTokenTTL)
	if err := service.sessionRepository.Set(context, sec.HashToken(refreshToken), user.ID, RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}
