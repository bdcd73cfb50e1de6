package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marlowai/marlow/internal/auth"
	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/normalize"
	"github.com/marlowai/marlow/internal/store"
)

// CredentialStatus describes the stored completion credential without revealing it.
type CredentialStatus struct {
	Configured bool       `json:"configured"`
	Masked     string     `json:"masked,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// SettingsService manages the completion-endpoint credential. The
// credential is sealed before it reaches the repository.
type SettingsService struct {
	repo   store.Repository
	sealer *auth.Sealer
	logger *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo store.Repository, sealer *auth.Sealer, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		sealer: sealer,
		logger: logger,
	}
}

// Credential returns the plain credential for outbound completion calls.
// A missing or unreadable credential is a precondition failure.
func (s *SettingsService) Credential(ctx context.Context) (string, error) {
	sealed, err := s.repo.Get(ctx, domain.KeyCredential)
	if errors.Is(err, store.ErrNotFound) {
		return "", missingCredential()
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}

	secret, err := s.sealer.Open(string(sealed))
	if err != nil {
		s.logger.Warn("stored credential cannot be opened, treating as unset", "error", err)
		return "", missingCredential()
	}
	return secret, nil
}

// CredentialStatus reports whether a credential is stored, with a masked preview.
func (s *SettingsService) CredentialStatus(ctx context.Context) (*CredentialStatus, error) {
	sealed, err := s.repo.Get(ctx, domain.KeyCredential)
	if errors.Is(err, store.ErrNotFound) {
		return &CredentialStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	secret, err := s.sealer.Open(string(sealed))
	if err != nil {
		return &CredentialStatus{}, nil
	}

	status := &CredentialStatus{Configured: true, Masked: auth.Mask(secret)}
	if at, err := s.sealer.IssuedAt(string(sealed)); err == nil {
		status.UpdatedAt = &at
	}
	return status, nil
}

// SetCredential seals and stores secret, replacing any previous credential.
func (s *SettingsService) SetCredential(ctx context.Context, secret string) (*CredentialStatus, error) {
	secret = normalize.Text(secret)
	if secret == "" {
		return nil, domainerrors.Validation("credential cannot be empty")
	}

	if err := s.repo.Set(ctx, domain.KeyCredential, []byte(s.sealer.Seal(secret))); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info("completion credential updated")
	return s.CredentialStatus(ctx)
}

// DeleteCredential removes the stored credential.
func (s *SettingsService) DeleteCredential(ctx context.Context) error {
	if err := s.repo.Delete(ctx, domain.KeyCredential); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	s.logger.Info("completion credential removed")
	return nil
}

func missingCredential() error {
	return domainerrors.Wrap(completion.ErrMissingCredential, domainerrors.CodePrecondition,
		"completion credential is not configured")
}
