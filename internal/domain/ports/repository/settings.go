package repository

import (
	"context"

	"deep-research-agent/internal/domain/model"
)

// SettingsRepository persists the backend credentials set through the
// settings endpoint so they survive restarts. Implementations store the API
// key encrypted at rest.
type SettingsRepository interface {
	SaveCredentials(ctx context.Context, creds *model.BackendCredentials) error
	// LoadCredentials returns domain.ErrNotFound when nothing was stored yet.
	LoadCredentials(ctx context.Context) (*model.BackendCredentials, error)
}
