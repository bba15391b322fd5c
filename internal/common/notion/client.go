// Package notion is a minimal client for the record store: it creates pages
// in a database and reads database metadata.
package notion

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "github.com/emmanuel-sarpedon/contact-form/internal/common/http"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
)

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Version string
	Timeout time.Duration
}

type Client struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *commonhttp.Client
}

// Page is the subset of a created page the service needs.
type Page struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	URL    string `json:"url"`
}

// Database is the subset of database metadata used by readiness checks.
type Database struct {
	Object string     `json:"object"`
	ID     string     `json:"id"`
	Title  []RichText `json:"title,omitempty"`
}

// APIError is the error body returned by the API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api error (status %d, code %s): %s", e.Status, e.Code, e.Message)
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		version:    cfg.Version,
		httpClient: commonhttp.NewClient(cfg.Timeout),
	}
}

type createPageRequest struct {
	Parent     parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

type parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

// CreatePage adds a row to the database and returns the created page.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties Properties) (*Page, error) {
	payload := createPageRequest{
		Parent:     parent{Type: "database_id", DatabaseID: databaseID},
		Properties: properties,
	}

	var page Page
	if err := c.httpClient.DoJSON(ctx, http.MethodPost, c.baseURL+"/v1/pages", c.headers(), payload, &page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", c.apiError(err))
	}
	if page.ID == "" || page.URL == "" {
		return nil, fmt.Errorf("failed to create page: response has no id or url")
	}
	return &page, nil
}

// RetrieveDatabase fetches database metadata.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	url := fmt.Sprintf("%s/v1/databases/%s", c.baseURL, databaseID)

	var db Database
	if err := c.httpClient.DoJSON(ctx, http.MethodGet, url, c.headers(), nil, &db); err != nil {
		return nil, fmt.Errorf("failed to retrieve database: %w", c.apiError(err))
	}
	return &db, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + c.apiKey,
		"Notion-Version": c.version,
	}
}

// apiError decodes the API error body of a non-2xx response when there is one.
func (c *Client) apiError(err error) error {
	var statusErr *commonhttp.StatusError
	if !stderrors.As(err, &statusErr) {
		return err
	}
	var apiErr APIError
	if jsonErr := json.Unmarshal(statusErr.Body, &apiErr); jsonErr != nil || apiErr.Code == "" {
		return err
	}
	if apiErr.Status == 0 {
		apiErr.Status = statusErr.StatusCode
	}
	return &apiErr
}
