package prospectrecordcreate

import (
	"context"
	"time"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/notion"
)

// RecordStore creates and inspects records in the prospects database.
type RecordStore interface {
	CreatePage(ctx context.Context, databaseID string, properties notion.Properties) (*notion.Page, error)
	RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error)
}

type Output struct {
	PageID    string    `json:"pageId"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type ServiceDependencies struct {
	Logger logger.Logger
	// Store overrides the client built from the configuration.
	Store RecordStore
}
