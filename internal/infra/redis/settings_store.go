package redis

import (
	"context"
	"encoding/json"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/repository"
	"deep-research-agent/internal/infra/security"
)

var _ repository.SettingsRepository = (*SettingsStore)(nil)

const credentialsKey = "settings:backend_credentials"

// SettingsStore persists backend credentials in Redis with the API key
// encrypted at rest.
type SettingsStore struct {
	client RedisClient
	enc    *security.EncryptionService
}

func NewSettingsStore(client RedisClient, enc *security.EncryptionService) *SettingsStore {
	return &SettingsStore{client: client, enc: enc}
}

func (s *SettingsStore) SaveCredentials(ctx context.Context, creds *model.BackendCredentials) error {
	sealed := *creds
	cipher, err := s.enc.Encrypt(creds.APIKey)
	if err != nil {
		return err
	}
	sealed.APIKey = cipher

	data, err := json.Marshal(&sealed)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialsKey, data, 0)
}

func (s *SettingsStore) LoadCredentials(ctx context.Context) (*model.BackendCredentials, error) {
	data, err := s.client.Get(ctx, credentialsKey)
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var creds model.BackendCredentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, err
	}
	plain, err := s.enc.Decrypt(creds.APIKey)
	if err != nil {
		return nil, err
	}
	creds.APIKey = plain
	return &creds, nil
}
