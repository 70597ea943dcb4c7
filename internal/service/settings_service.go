package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"roundreview/internal/auth"
	"roundreview/internal/config"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
	"roundreview/internal/domain/services"
	"roundreview/internal/service/audit"
	"roundreview/internal/service/policy"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// URLVerifier probes a webhook endpoint before it is stored.
type URLVerifier interface {
	Verify(ctx context.Context, url string) error
}

var httpScheme = regexp.MustCompile(`^https?://`)

const (
	settingAPIKey     = "API_KEY"
	settingWebhookURL = "WEBHOOK_URL"
)

// SettingsService implements the SettingsService interface
type SettingsService struct {
	users     repositories.UserRepository
	verifier  URLVerifier
	audit     *audit.Log
	evaluator *policy.Evaluator
	facts     *policy.FactLoader
	logger    *slog.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(
	users repositories.UserRepository,
	verifier URLVerifier,
	auditLog *audit.Log,
	evaluator *policy.Evaluator,
	facts *policy.FactLoader,
	logger *slog.Logger,
) services.SettingsService {
	return &SettingsService{
		users:     users,
		verifier:  verifier,
		audit:     auditLog,
		evaluator: evaluator,
		facts:     facts,
		logger:    logger,
	}
}

func (s *SettingsService) authorizeSelf(ctx context.Context, actor models.Actor, action policy.Action) error {
	target, err := s.facts.User(ctx, actor.ID)
	if err != nil {
		return err
	}
	return authorize(s.evaluator, s.logger, actor, policy.KindUser, policy.Resource{Target: target}, action)
}

// GetProfile returns the actor's account
func (s *SettingsService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	if err := s.authorizeSelf(ctx, actor, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, actor.ID)
}

// EnableAPIKey generates a new key, replacing any previous one
func (s *SettingsService) EnableAPIKey(ctx context.Context, actor models.Actor) (*services.APIKeyResult, error) {
	if err := s.authorizeSelf(ctx, actor, policy.ActionUpdate); err != nil {
		return nil, err
	}

	key, hash := auth.NewAPIKey()
	if err := s.users.SetAPIKeyHash(ctx, actor.ID, &hash); err != nil {
		return nil, fmt.Errorf("store api key: %w", err)
	}

	s.audit.Record(ctx, actor.ID, audit.Action("settings update", "target", settingAPIKey, "action", "enable"))
	s.logger.Info("api key enabled", "user_id", actor.ID)
	return &services.APIKeyResult{Enabled: true, APIKey: key}, nil
}

// DisableAPIKey removes the actor's key
func (s *SettingsService) DisableAPIKey(ctx context.Context, actor models.Actor) error {
	if err := s.authorizeSelf(ctx, actor, policy.ActionUpdate); err != nil {
		return err
	}

	if err := s.users.SetAPIKeyHash(ctx, actor.ID, nil); err != nil {
		return fmt.Errorf("remove api key: %w", err)
	}

	s.audit.Record(ctx, actor.ID, audit.Action("settings update", "target", settingAPIKey, "action", "disable"))
	s.logger.Info("api key disabled", "user_id", actor.ID)
	return nil
}

// SetWebhook verifies and stores the webhook URL, or clears it when empty
func (s *SettingsService) SetWebhook(ctx context.Context, actor models.Actor, req *services.UpdateWebhookRequest) (*models.User, error) {
	if err := s.authorizeSelf(ctx, actor, policy.ActionUpdate); err != nil {
		return nil, err
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		if err := s.users.SetWebhookURL(ctx, actor.ID, nil); err != nil {
			return nil, fmt.Errorf("clear webhook url: %w", err)
		}
		s.audit.Record(ctx, actor.ID, audit.Action("settings update", "target", settingWebhookURL, "action", "disable"))
		s.logger.Info("webhook cleared", "user_id", actor.ID)
		return s.users.GetByID(ctx, actor.ID)
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !user.HasAPIKey() {
		return nil, &domain.ValidationError{Message: "enable an API key before configuring a webhook"}
	}

	err = validation.Validate(url,
		validation.Length(1, config.MaxWebhookURLLength),
		is.URL,
		validation.Match(httpScheme).Error("must use http or https"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: url: %v", domain.ErrValidation, err)
	}

	if err := s.verifier.Verify(ctx, url); err != nil {
		s.logger.Info("webhook verification failed", "user_id", actor.ID, "error", err)
		return nil, &domain.ValidationError{Message: fmt.Sprintf("webhook URL did not answer HEAD with 200: %v", err)}
	}

	if err := s.users.SetWebhookURL(ctx, actor.ID, &url); err != nil {
		return nil, fmt.Errorf("store webhook url: %w", err)
	}

	s.audit.Record(ctx, actor.ID, audit.Action("settings update",
		"target", settingWebhookURL, "action", "update", "value", url))
	s.logger.Info("webhook updated", "user_id", actor.ID)
	return s.users.GetByID(ctx, actor.ID)
}
