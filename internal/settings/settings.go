package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ServiceName represents a configurable service
type ServiceName string

const (
	ServiceOpenAI       ServiceName = "openai"
	ServiceGrok         ServiceName = "grok"
	ServiceBedrock      ServiceName = "bedrock"
	ServiceAlpaca       ServiceName = "alpaca"
	ServiceAlphaVantage ServiceName = "alpha_vantage"
)

// knownServices lists the services that can be configured
var knownServices = []ServiceName{
	ServiceOpenAI,
	ServiceGrok,
	ServiceBedrock,
	ServiceAlpaca,
	ServiceAlphaVantage,
}

// APIKeyConfig represents configuration for a single API key
type APIKeyConfig struct {
	ServiceName ServiceName `json:"service_name"`
	APIKey      string      `json:"api_key,omitempty"`
	APISecret   string      `json:"api_secret,omitempty"` // For services like Alpaca that need both
	BaseURL     string      `json:"base_url,omitempty"`   // Optional base URL override
	Region      string      `json:"region,omitempty"`     // For AWS services
	ModelID     string      `json:"model_id,omitempty"`   // For AI services
}

// APIKeyModel is the database representation of an API key with secrets
// stored encrypted
type APIKeyModel struct {
	ID                 uuid.UUID `json:"id"`
	ServiceName        string    `json:"service_name"`
	APIKeyEncrypted    []byte    `json:"-"`
	APISecretEncrypted []byte    `json:"-"`
	BaseURL            string    `json:"base_url,omitempty"`
	Region             string    `json:"region,omitempty"`
	ModelID            string    `json:"model_id,omitempty"`
}

// RepositoryInterface defines the database operations the store needs
type RepositoryInterface interface {
	GetAPIKey(ctx context.Context, serviceName string) (*APIKeyModel, error)
	GetAllAPIKeys(ctx context.Context) ([]APIKeyModel, error)
	UpsertAPIKey(ctx context.Context, apiKey *APIKeyModel) error
	DeleteAPIKey(ctx context.Context, serviceName string) error
}

// MaskedAPIKeyConfig represents an API key config with masked secrets
type MaskedAPIKeyConfig struct {
	ServiceName  ServiceName `json:"service_name"`
	APIKey       string      `json:"api_key,omitempty"`
	APISecret    string      `json:"api_secret,omitempty"`
	BaseURL      string      `json:"base_url,omitempty"`
	Region       string      `json:"region,omitempty"`
	ModelID      string      `json:"model_id,omitempty"`
	IsConfigured bool        `json:"is_configured"`
}

// Settings is the on-disk format used when no database is configured
type Settings struct {
	APIKeys map[ServiceName]*APIKeyConfig `json:"api_keys"`
}

// Store manages persistent storage of API key settings. Secrets are
// encrypted at rest. When a repository is provided, keys live in the
// database; otherwise they are written to an encrypted local file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	repo     RepositoryInterface
	crypto   *Crypto
	keys     map[ServiceName]*APIKeyConfig
}

// NewStore creates a new settings store. repo may be nil for file-only mode.
func NewStore(dataDir string, passphrase string, repo RepositoryInterface) (*Store, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".stock-insight")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	crypto, err := NewCrypto(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize crypto: %w", err)
	}

	store := &Store{
		filePath: filepath.Join(dataDir, "settings.enc"),
		repo:     repo,
		crypto:   crypto,
		keys:     make(map[ServiceName]*APIKeyConfig),
	}

	if err := store.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Fall back to empty settings rather than failing startup
		fmt.Fprintf(os.Stderr, "warning: failed to load settings: %v\n", err)
	}

	return store, nil
}

// load reads settings from the database or the encrypted file
func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		return s.loadFromDB()
	}
	return s.loadFromFile()
}

func (s *Store) loadFromDB() error {
	modelList, err := s.repo.GetAllAPIKeys(context.Background())
	if err != nil || len(modelList) == 0 {
		// Empty database, pull any keys stored by an earlier file-only run
		return s.migrateFromFile()
	}

	for _, model := range modelList {
		config, err := s.decryptModel(&model)
		if err != nil {
			return fmt.Errorf("failed to decrypt key for %s: %w", model.ServiceName, err)
		}
		s.keys[config.ServiceName] = config
	}
	return nil
}

// migrateFromFile moves keys from the encrypted settings file into the
// database. Runs once, when the database has no keys yet.
func (s *Store) migrateFromFile() error {
	if err := s.loadFromFile(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, config := range s.keys {
		model, err := s.encryptConfig(config)
		if err != nil {
			return fmt.Errorf("failed to encrypt key for %s: %w", config.ServiceName, err)
		}
		if err := s.repo.UpsertAPIKey(context.Background(), model); err != nil {
			return fmt.Errorf("failed to migrate key for %s: %w", config.ServiceName, err)
		}
	}
	return nil
}

func (s *Store) loadFromFile() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	decrypted, err := s.crypto.Decrypt(data)
	if err != nil {
		return fmt.Errorf("failed to decrypt settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(decrypted, &settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if settings.APIKeys != nil {
		s.keys = settings.APIKeys
	}
	return nil
}

// decryptModel converts a database model into a plaintext config
func (s *Store) decryptModel(model *APIKeyModel) (*APIKeyConfig, error) {
	config := &APIKeyConfig{
		ServiceName: ServiceName(model.ServiceName),
		BaseURL:     model.BaseURL,
		Region:      model.Region,
		ModelID:     model.ModelID,
	}

	if len(model.APIKeyEncrypted) > 0 {
		plaintext, err := s.crypto.Decrypt(model.APIKeyEncrypted)
		if err != nil {
			return nil, err
		}
		config.APIKey = string(plaintext)
	}

	if len(model.APISecretEncrypted) > 0 {
		plaintext, err := s.crypto.Decrypt(model.APISecretEncrypted)
		if err != nil {
			return nil, err
		}
		config.APISecret = string(plaintext)
	}

	return config, nil
}

// encryptConfig converts a plaintext config into a database model
func (s *Store) encryptConfig(config *APIKeyConfig) (*APIKeyModel, error) {
	model := &APIKeyModel{
		ID:          uuid.New(),
		ServiceName: string(config.ServiceName),
		BaseURL:     config.BaseURL,
		Region:      config.Region,
		ModelID:     config.ModelID,
	}

	if config.APIKey != "" {
		encrypted, err := s.crypto.Encrypt([]byte(config.APIKey))
		if err != nil {
			return nil, err
		}
		model.APIKeyEncrypted = encrypted
	}

	if config.APISecret != "" {
		encrypted, err := s.crypto.Encrypt([]byte(config.APISecret))
		if err != nil {
			return nil, err
		}
		model.APISecretEncrypted = encrypted
	}

	return model, nil
}

// save persists the in-memory keys to the encrypted file. Database mode
// writes through on each SetAPIKey/DeleteAPIKey instead.
func (s *Store) save() error {
	data, err := json.Marshal(Settings{APIKeys: s.keys})
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	encrypted, err := s.crypto.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt settings: %w", err)
	}

	if err := os.WriteFile(s.filePath, encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// GetAPIKey returns the API key config for a service (unmasked)
func (s *Store) GetAPIKey(service ServiceName) *APIKeyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if config, ok := s.keys[service]; ok {
		// Return a copy to prevent external modification
		configCopy := *config
		return &configCopy
	}
	return nil
}

// SetAPIKey stores an API key configuration
func (s *Store) SetAPIKey(config *APIKeyConfig) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	if config.ServiceName == "" {
		return errors.New("service name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[config.ServiceName] = config

	if s.repo != nil {
		model, err := s.encryptConfig(config)
		if err != nil {
			return fmt.Errorf("failed to encrypt key: %w", err)
		}
		return s.repo.UpsertAPIKey(context.Background(), model)
	}

	return s.save()
}

// DeleteAPIKey removes an API key configuration
func (s *Store) DeleteAPIKey(service ServiceName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, service)

	if s.repo != nil {
		return s.repo.DeleteAPIKey(context.Background(), string(service))
	}

	return s.save()
}

// GetAllAPIKeys returns copies of every configured key
func (s *Store) GetAllAPIKeys() map[ServiceName]*APIKeyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[ServiceName]*APIKeyConfig, len(s.keys))
	for service, config := range s.keys {
		configCopy := *config
		result[service] = &configCopy
	}
	return result
}

// GetMaskedSettings returns all settings with API keys masked
func (s *Store) GetMaskedSettings() map[ServiceName]*MaskedAPIKeyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[ServiceName]*MaskedAPIKeyConfig)

	for _, service := range knownServices {
		masked := &MaskedAPIKeyConfig{
			ServiceName:  service,
			IsConfigured: false,
		}

		if config, ok := s.keys[service]; ok {
			masked.APIKey = maskString(config.APIKey)
			masked.APISecret = maskString(config.APISecret)
			masked.BaseURL = config.BaseURL
			masked.Region = config.Region
			masked.ModelID = config.ModelID
			masked.IsConfigured = config.APIKey != "" || config.APISecret != "" || config.Region != ""
		}

		result[service] = masked
	}

	return result
}

// IsConfigured checks if a service has API keys configured
func (s *Store) IsConfigured(service ServiceName) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.keys[service]
	if !ok {
		return false
	}

	// Bedrock relies on ambient AWS credentials plus a region and model
	if service == ServiceBedrock {
		return config.Region != "" && config.ModelID != ""
	}

	return config.APIKey != ""
}

// maskString masks a string showing only last 4 characters
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// ResetAll removes all API keys (for testing purposes)
func (s *Store) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		for service := range s.keys {
			if err := s.repo.DeleteAPIKey(context.Background(), string(service)); err != nil {
				return err
			}
		}
		s.keys = make(map[ServiceName]*APIKeyConfig)
		return nil
	}

	s.keys = make(map[ServiceName]*APIKeyConfig)
	return s.save()
}

// ServiceDisplayName returns a human-readable name for a service
func ServiceDisplayName(service ServiceName) string {
	switch service {
	case ServiceOpenAI:
		return "OpenAI"
	case ServiceGrok:
		return "xAI Grok"
	case ServiceBedrock:
		return "AWS Bedrock"
	case ServiceAlpaca:
		return "Alpaca Markets"
	case ServiceAlphaVantage:
		return "Alpha Vantage"
	default:
		return string(service)
	}
}

// ServiceDescription returns a description for a service
func ServiceDescription(service ServiceName) string {
	switch service {
	case ServiceOpenAI:
		return "AI commentary on analysis results"
	case ServiceGrok:
		return "Alternative AI commentary provider"
	case ServiceBedrock:
		return "Claude models for AI commentary"
	case ServiceAlpaca:
		return "Fallback price history source"
	case ServiceAlphaVantage:
		return "Fallback fundamental company data"
	default:
		return ""
	}
}
