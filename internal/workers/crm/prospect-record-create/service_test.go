package prospectrecordcreate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/emmanuel-sarpedon/contact-form/internal/common/errors"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/notion"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

// ==========================
// Mock Record Store
// ==========================

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreatePage(ctx context.Context, databaseID string, properties notion.Properties) (*notion.Page, error) {
	args := m.Called(ctx, databaseID, properties)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Page), args.Error(1)
}

func (m *MockStore) RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error) {
	args := m.Called(ctx, databaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notion.Database), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func minimalSubmission() *models.Submission {
	return &models.Submission{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Message:  "I need a website built",
		Consent:  true,
	}
}

func fullSubmission() *models.Submission {
	sub := minimalSubmission()
	sub.Society = "Acme"
	sub.PhoneNumber = "0612345678"
	sub.Website = "https://acme.example"
	return sub
}

func createValidConfig() *Config {
	cfg := DefaultConfig()
	cfg.NotionAPIKey = "secret_test"
	cfg.NotionDatabaseID = "db-1"
	return cfg
}

func text(s string) []notion.RichText {
	return []notion.RichText{{Type: "text", Text: notion.TextContent{Content: s}}}
}

func strPtr(s string) *string {
	return &s
}

// ==========================
// BuildProperties
// ==========================

func TestBuildProperties_Minimal(t *testing.T) {
	want := notion.Properties{
		PropFullName: {Title: text("Jane Doe")},
		PropEmail:    {Email: strPtr("jane@x.com")},
		PropMessage:  {RichText: text("I need a website built")},
		PropState:    {Select: &notion.SelectOption{Name: StateToContact}},
	}

	got := BuildProperties(minimalSubmission())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildProperties() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildProperties_Full(t *testing.T) {
	want := notion.Properties{
		PropFullName:    {Title: text("Jane Doe")},
		PropSociety:     {RichText: text("Acme")},
		PropEmail:       {Email: strPtr("jane@x.com")},
		PropPhoneNumber: {PhoneNumber: strPtr("0612345678")},
		PropMessage:     {RichText: text("I need a website built")},
		PropWebsite:     {URL: strPtr("https://acme.example")},
		PropState:       {Select: &notion.SelectOption{Name: StateToContact}},
	}

	got := BuildProperties(fullSubmission())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildProperties() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildProperties_OptionalOmission(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Submission)
		absent  []string
		present []string
	}{
		{"no society", func(s *models.Submission) { s.Society = "" }, []string{PropSociety}, []string{PropPhoneNumber, PropWebsite}},
		{"no phone", func(s *models.Submission) { s.PhoneNumber = "" }, []string{PropPhoneNumber}, []string{PropSociety, PropWebsite}},
		{"no website", func(s *models.Submission) { s.Website = "" }, []string{PropWebsite}, []string{PropSociety, PropPhoneNumber}},
		{"none", func(s *models.Submission) { s.Society, s.PhoneNumber, s.Website = "", "", "" }, []string{PropSociety, PropPhoneNumber, PropWebsite}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := fullSubmission()
			tt.mutate(sub)
			props := BuildProperties(sub)

			for _, name := range tt.absent {
				assert.NotContains(t, props, name)
			}
			for _, name := range tt.present {
				assert.Contains(t, props, name)
			}
			require.Contains(t, props, PropState)
			assert.Equal(t, StateToContact, props[PropState].Select.Name)
			assert.NoError(t, ValidatePayload(props))
		})
	}
}

func TestBuildProperties_LongMessageIsChunked(t *testing.T) {
	sub := minimalSubmission()
	sub.Message = strings.Repeat("a", notion.MaxTextLength+10)

	props := BuildProperties(sub)
	require.Len(t, props[PropMessage].RichText, 2)
	assert.NoError(t, ValidatePayload(props))
}

// ==========================
// ValidatePayload
// ==========================

func TestValidatePayload_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(notion.Properties)
	}{
		{"missing state", func(p notion.Properties) { delete(p, PropState) }},
		{"wrong state", func(p notion.Properties) { p[PropState] = notion.SelectProperty("Contacté") }},
		{"blank title", func(p notion.Properties) { p[PropFullName] = notion.TitleProperty("") }},
		{"unknown column", func(p notion.Properties) { p["Budget"] = notion.RichTextProperty("1k") }},
		{"blank email", func(p notion.Properties) { p[PropEmail] = notion.EmailProperty("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := BuildProperties(minimalSubmission())
			tt.mutate(props)
			assert.Error(t, ValidatePayload(props))
		})
	}
}

// ==========================
// Service
// ==========================

func TestService_Execute_Success(t *testing.T) {
	store := new(MockStore)
	store.On("CreatePage", mock.Anything, "db-1", mock.MatchedBy(func(p notion.Properties) bool {
		_, hasSociety := p[PropSociety]
		return !hasSociety && p[PropState].Select.Name == StateToContact
	})).Return(&notion.Page{ID: "page-1", URL: "https://www.notion.so/page-1"}, nil).Once()

	svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t), Store: store}, createValidConfig())
	out, err := svc.Execute(context.Background(), minimalSubmission())

	require.NoError(t, err)
	assert.Equal(t, "page-1", out.PageID)
	assert.Equal(t, "https://www.notion.so/page-1", out.URL)
	store.AssertExpectations(t)
}

func TestService_Execute_ConfigurationMissing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{"no api key", func(c *Config) { c.NotionAPIKey = "" }, "NOTION_API_KEY"},
		{"no database id", func(c *Config) { c.NotionDatabaseID = "" }, "NOTION_DATABASE_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createValidConfig()
			tt.mutate(cfg)
			svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t)}, cfg)

			out, err := svc.Execute(context.Background(), minimalSubmission())
			assert.Nil(t, out)
			require.Error(t, err)

			var stdErr *commonerrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, commonerrors.ErrCodeConfigurationMissing, stdErr.Code)
			assert.Equal(t, tt.setting, stdErr.Metadata["setting"])
			assert.False(t, svc.Configured())
		})
	}
}

func TestService_Execute_StoreFailure(t *testing.T) {
	store := new(MockStore)
	store.On("CreatePage", mock.Anything, "db-1", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t), Store: store}, createValidConfig())
	_, err := svc.Execute(context.Background(), minimalSubmission())

	require.Error(t, err)
	assert.Equal(t, string(commonerrors.ErrCodeRecordCreateFailed), commonerrors.CodeOf(err))
	assert.Contains(t, err.(*commonerrors.StandardError).Details, "connection reset")
}

func TestService_Execute_InvalidPayloadNeverSent(t *testing.T) {
	store := new(MockStore)
	svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t), Store: store}, createValidConfig())

	sub := minimalSubmission()
	sub.FullName = ""
	_, err := svc.Execute(context.Background(), sub)

	require.Error(t, err)
	assert.Equal(t, string(commonerrors.ErrCodePayloadInvalid), commonerrors.CodeOf(err))
	store.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Execute_HTTP(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret_test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Parent     map[string]string          `json:"parent"`
			Properties map[string]json.RawMessage `json:"properties"`
		}
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "db-1", payload.Parent["database_id"])
		assert.NotContains(t, payload.Properties, PropSociety)
		assert.NotContains(t, payload.Properties, PropPhoneNumber)
		assert.NotContains(t, payload.Properties, PropWebsite)
		assert.JSONEq(t, `{"select":{"name":"A contacter"}}`, string(payload.Properties[PropState]))

		_, _ = w.Write([]byte(`{"object":"page","id":"page-9","url":"https://www.notion.so/page-9"}`))
	}))
	defer server.Close()

	cfg := createValidConfig()
	cfg.NotionBaseURL = server.URL
	cfg.Timeout = 5 * time.Second

	svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t)}, cfg)
	out, err := svc.Execute(context.Background(), minimalSubmission())

	require.NoError(t, err)
	assert.Equal(t, "https://www.notion.so/page-9", out.URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestService_TestConnection(t *testing.T) {
	store := new(MockStore)
	store.On("RetrieveDatabase", mock.Anything, "db-1").Return(&notion.Database{ID: "db-1"}, nil).Once()

	svc := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Store: store}, createValidConfig())
	assert.NoError(t, svc.TestConnection(context.Background()))
	assert.True(t, svc.Configured())

	failing := new(MockStore)
	failing.On("RetrieveDatabase", mock.Anything, "db-1").Return(nil, errors.New("401")).Once()
	svc = NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Store: failing}, createValidConfig())
	assert.Error(t, svc.TestConnection(context.Background()))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
