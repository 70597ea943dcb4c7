package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
	"roundreview/internal/domain/services"
	"roundreview/internal/service/policy"
)

// FlagSource supplies the login switch.
type FlagSource interface {
	Flags(ctx context.Context) (models.SystemFlags, error)
}

// Authenticator resolves the actor of a request from an API key or a bearer
// token and applies the login rule.
type Authenticator struct {
	users     repositories.UserRepository
	verifier  JWTVerifier
	evaluator *policy.Evaluator
	flags     FlagSource
	logger    *slog.Logger
}

// NewAuthenticator creates an authenticator. A nil verifier disables bearer
// tokens.
func NewAuthenticator(
	users repositories.UserRepository,
	verifier JWTVerifier,
	evaluator *policy.Evaluator,
	flags FlagSource,
	logger *slog.Logger,
) services.Authenticator {
	return &Authenticator{
		users:     users,
		verifier:  verifier,
		evaluator: evaluator,
		flags:     flags,
		logger:    logger,
	}
}

// Authenticate implements services.Authenticator.
func (a *Authenticator) Authenticate(r *http.Request) (models.Actor, error) {
	ctx := r.Context()

	user, err := a.resolve(r)
	if err != nil {
		return models.Actor{}, err
	}

	flags, err := a.flags.Flags(ctx)
	if err != nil {
		return models.Actor{}, err
	}

	actor := user.Actor()
	d := a.evaluator.Decide(actor, policy.KindUser, policy.Resource{Flags: flags}, policy.ActionLogin)
	if !d.Allowed {
		a.logger.Debug("login denied", "user_id", actor.ID, "reason", string(d.Reason))
		if d.Kind == policy.DenyNotFound {
			return models.Actor{}, &domain.UnauthorizedError{Message: "authentication required"}
		}
		return models.Actor{}, d.Err()
	}
	return actor, nil
}

func (a *Authenticator) resolve(r *http.Request) (*models.User, error) {
	ctx := r.Context()

	if key := r.Header.Get(APIKeyHeader); key != "" {
		user, err := a.users.GetByAPIKeyHash(ctx, HashAPIKey(key))
		if err != nil {
			return nil, unauthorized(err, "invalid API key")
		}
		return user, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, &domain.UnauthorizedError{Message: "invalid authorization header format"}
	}
	if a.verifier == nil {
		return nil, &domain.UnauthorizedError{Message: "bearer tokens are not accepted"}
	}

	claims, err := a.verifier.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetByID(ctx, claims.GetUserID())
	if err != nil {
		return nil, unauthorized(err, "unknown user")
	}
	return user, nil
}

func unauthorized(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.UnauthorizedError{Message: message}
	}
	return fmt.Errorf("resolve user: %w", err)
}
