package usecase

import (
	"context"

	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/adapter"
	"deep-research-agent/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase reconfigures the research client when the user changes
// credentials and persists them so they survive restarts.
type SettingsUseCase interface {
	UpdateCredentials(ctx context.Context, creds model.BackendCredentials) error
	Credentials(ctx context.Context) (*model.BackendCredentials, error)
}

type settingsUC struct {
	store  repository.SettingsRepository
	client adapter.ResearchClient
	log    *zerolog.Logger
}

func NewSettingsUseCase(store repository.SettingsRepository, client adapter.ResearchClient, logger *zerolog.Logger) *settingsUC {
	ucLog := logger.With().Str("component", "SettingsUC").Logger()
	return &settingsUC{store: store, client: client, log: &ucLog}
}

func (s *settingsUC) UpdateCredentials(ctx context.Context, creds model.BackendCredentials) error {
	if err := s.client.Configure(creds); err != nil {
		return err
	}
	if err := s.store.SaveCredentials(ctx, &creds); err != nil {
		// The client is already reconfigured; persistence failures only cost
		// the next restart its stored credentials.
		s.log.Error().Err(err).Msg("persist credentials")
		return err
	}
	return nil
}

func (s *settingsUC) Credentials(ctx context.Context) (*model.BackendCredentials, error) {
	return s.store.LoadCredentials(ctx)
}
