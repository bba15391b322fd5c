package prospectrecordcreate

import (
	"context"
	"fmt"
	"time"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/errors"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/notion"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

type Service struct {
	config *Config
	logger logger.Logger
	store  RecordStore
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	store := deps.Store
	if store == nil && config.NotionAPIKey != "" {
		store = notion.NewClient(notion.ClientConfig{
			APIKey:  config.NotionAPIKey,
			BaseURL: config.NotionBaseURL,
			Version: config.NotionVersion,
			Timeout: config.Timeout,
		})
	}

	return &Service{
		config: config,
		logger: deps.Logger,
		store:  store,
	}
}

// Execute creates one prospect record and returns its canonical URL.
func (s *Service) Execute(ctx context.Context, sub *models.Submission) (*Output, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	props := BuildProperties(sub)
	if err := ValidatePayload(props); err != nil {
		return nil, errors.NewPayloadInvalidError(err.Error())
	}

	s.logger.Debug("Creating prospect record", map[string]interface{}{
		"databaseId": s.config.NotionDatabaseID,
		"properties": len(props),
		"hasSociety": sub.Society != "",
		"hasPhone":   sub.PhoneNumber != "",
		"hasWebsite": sub.Website != "",
	})

	page, err := s.store.CreatePage(ctx, s.config.NotionDatabaseID, props)
	if err != nil {
		return nil, errors.NewRecordCreateFailedError(err)
	}

	s.logger.Info("Prospect record created", map[string]interface{}{
		"pageId": page.ID,
		"url":    page.URL,
	})

	return &Output{
		PageID:    page.ID,
		URL:       page.URL,
		CreatedAt: time.Now(),
	}, nil
}

// TestConnection checks that the credentials can read the target database.
func (s *Service) TestConnection(ctx context.Context) error {
	if err := s.checkConfigured(); err != nil {
		return err
	}
	if _, err := s.store.RetrieveDatabase(ctx, s.config.NotionDatabaseID); err != nil {
		return fmt.Errorf("record store unreachable: %w", err)
	}
	return nil
}

// Configured reports whether credentials and target database are set.
func (s *Service) Configured() bool {
	return s.checkConfigured() == nil
}

func (s *Service) checkConfigured() error {
	if s.store == nil {
		return errors.NewConfigurationMissingError("NOTION_API_KEY")
	}
	if s.config.NotionDatabaseID == "" {
		return errors.NewConfigurationMissingError("NOTION_DATABASE_ID")
	}
	return nil
}
