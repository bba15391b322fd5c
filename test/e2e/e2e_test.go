// test/e2e/e2e_test.go
package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/config"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/database"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/mailer"
	"github.com/emmanuel-sarpedon/contact-form/internal/web"
	ownernotify "github.com/emmanuel-sarpedon/contact-form/internal/workers/communication/owner-notify"
	submissionpipeline "github.com/emmanuel-sarpedon/contact-form/internal/workers/contact/submission-pipeline"
	prospectrecordcreate "github.com/emmanuel-sarpedon/contact-form/internal/workers/crm/prospect-record-create"
)

// ==========================
// Fake Collaborators
// ==========================

// notionServer records created pages and answers like the Notion API.
type notionServer struct {
	*httptest.Server
	mu    sync.Mutex
	pages []map[string]interface{}
	fail  bool
}

func startNotion(t *testing.T) *notionServer {
	t.Helper()
	ns := &notionServer{}
	ns.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret_e2e", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
			ns.mu.Lock()
			defer ns.mu.Unlock()
			if ns.fail {
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, `{"object":"error","status":502,"code":"bad_gateway","message":"upstream down"}`)
				return
			}
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			ns.pages = append(ns.pages, body)
			id := fmt.Sprintf("page-%d", len(ns.pages))
			fmt.Fprintf(w, `{"object":"page","id":%q,"url":"https://www.notion.so/%s"}`, id, id)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/databases/"):
			io.WriteString(w, `{"object":"database","id":"db-e2e"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ns.Close)
	return ns
}

func (ns *notionServer) setFail(fail bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.fail = fail
}

func (ns *notionServer) Pages() []map[string]interface{} {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return append([]map[string]interface{}(nil), ns.pages...)
}

// startSMTP accepts any number of plain SMTP sessions and forwards each
// message body on the returned channel.
func startSMTP(t *testing.T) (string, int, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSMTP(conn, out)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, out
}

func serveSMTP(conn net.Conn, out chan<- string) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { io.WriteString(conn, line+"\r\n") }

	reply("220 localhost ESMTP e2e")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case cmd == "DATA":
			reply("354 go ahead")
			var data strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil || dl == ".\r\n" {
					break
				}
				data.WriteString(dl)
			}
			out <- data.String()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

// ==========================
// Environment
// ==========================

type environment struct {
	server *httptest.Server
	client *http.Client
	notion *notionServer
	mails  <-chan string
	redis  *miniredis.Miniredis
}

func writeConfig(t *testing.T, notionURL, redisAddr, smtpHost string, smtpPort int) string {
	t.Helper()
	yaml := fmt.Sprintf(`
app:
  name: "contact-form-e2e"
  environment: "test"
database:
  redis:
    address: %q
guard:
  driver: "redis"
  ttl: 60000
  key_prefix: "e2e:submission:"
mail:
  driver: "smtp"
  to: "${ZOHO_NOTIFICATION_EMAIL}"
integrations:
  notion:
    api_key: "${NOTION_API_KEY}"
    database_id: "${NOTION_DATABASE_ID}"
    base_url: %q
    timeout: 5000
  smtp:
    host: %q
    port: %d
    secure: false
logging:
  level: "debug"
  format: "console"
`, redisAddr, notionURL, smtpHost, smtpPort)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

// setupEnvironment wires the service the same way cmd/contact-server does,
// against in-process fakes of Notion, SMTP and Redis.
func setupEnvironment(t *testing.T) *environment {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	gin.SetMode(gin.TestMode)

	t.Setenv("NOTION_API_KEY", "secret_e2e")
	t.Setenv("NOTION_DATABASE_ID", "db-e2e")
	t.Setenv("ZOHO_NOTIFICATION_EMAIL", "owner@webmanu.dev")
	t.Setenv("ZOHO_SMTP_APP_PASSWORD", "")

	notion := startNotion(t)
	smtpHost, smtpPort, mails := startSMTP(t)
	mr := miniredis.RunT(t)

	cfg, err := config.LoadFromFile(writeConfig(t, notion.URL, mr.Addr(), smtpHost, smtpPort))
	require.NoError(t, err)

	log := logger.NewTestLogger(t)

	redis, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	require.NoError(t, redis.Ping(context.Background()))
	t.Cleanup(func() { redis.Close() })

	records := prospectrecordcreate.NewService(prospectrecordcreate.ServiceDependencies{Logger: log}, &prospectrecordcreate.Config{
		Timeout:          config.GetDuration(cfg.Integrations.Notion.Timeout),
		NotionAPIKey:     cfg.Integrations.Notion.APIKey,
		NotionDatabaseID: cfg.Integrations.Notion.DatabaseID,
		NotionBaseURL:    cfg.Integrations.Notion.BaseURL,
		NotionVersion:    cfg.Integrations.Notion.Version,
	})

	notifyCfg := ownernotify.DefaultConfig()
	notifyCfg.From = cfg.Mail.From
	notifyCfg.To = cfg.Mail.To
	notifyCfg.Subject = cfg.Mail.Subject
	notifier := ownernotify.NewService(ownernotify.ServiceDependencies{
		Logger: log,
		Mailer: mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:        cfg.Integrations.SMTP.Host,
			Port:        cfg.Integrations.SMTP.Port,
			Username:    cfg.Integrations.SMTP.Username,
			Password:    cfg.Integrations.SMTP.Password,
			Secure:      cfg.Integrations.SMTP.Secure,
			DialTimeout: 2 * time.Second,
		}),
	}, notifyCfg)

	pipeline, err := submissionpipeline.NewPipeline(submissionpipeline.ServiceDependencies{
		Logger:   log,
		Records:  records,
		Notifier: notifier,
		Guard:    submissionpipeline.NewRedisGuard(redis, cfg.Guard.KeyPrefix, config.GetDuration(cfg.Guard.TTL), config.GetDuration(cfg.Guard.InFlightTTL)),
	}, &submissionpipeline.Config{
		RedirectURL: cfg.Contact.RedirectURL,
		Messages: submissionpipeline.Messages{
			InProgress: cfg.Contact.Messages.InProgress,
			Success:    cfg.Contact.Messages.Success,
			Failure:    cfg.Contact.Messages.Failure,
		},
	})
	require.NoError(t, err)

	router, err := web.NewRouter(web.RouterDeps{
		Logger:    log,
		Submitter: pipeline,
		Checks: map[string]web.ReadinessCheck{
			"guard":   pipeline.Ping,
			"records": records.TestConnection,
		},
		LoadingMessage: cfg.Contact.Messages.InProgress,
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &environment{
		server: server,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		notion: notion,
		mails:  mails,
		redis:  mr,
	}
}

func (e *environment) submit(t *testing.T, form url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+"/", form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func sampleForm(formID string) url.Values {
	return url.Values{
		"formId":   {formID},
		"fullName": {"Jane Doe"},
		"email":    {"jane@x.com"},
		"message":  {"I need a website built"},
		"consent":  {"on"},
	}
}

// ==========================
// Scenarios
// ==========================

func TestFullE2E(t *testing.T) {
	env := setupEnvironment(t)
	formID := uuid.NewString()

	resp := env.submit(t, sampleForm(formID))

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://webmanu.dev/formulaire-envoyee", resp.Header.Get("Location"))

	pages := env.notion.Pages()
	require.Len(t, pages, 1)
	props, ok := pages[0]["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "Nom complet")
	assert.Contains(t, props, "Email")
	assert.Contains(t, props, "Message")
	assert.Contains(t, props, "Etat")
	assert.NotContains(t, props, "Entreprise")
	assert.NotContains(t, props, "Telephone")
	assert.NotContains(t, props, "Site internet")

	select {
	case body := <-env.mails:
		assert.Contains(t, body, "https://www.notion.so/page-1")
	case <-time.After(5 * time.Second):
		t.Fatal("owner notification was not delivered")
	}

	state, err := env.redis.Get("e2e:submission:" + formID)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", state)

	again := env.submit(t, sampleForm(formID))
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	assert.Len(t, env.notion.Pages(), 1, "a sealed form instance never creates a second record")
}

func TestE2E_InvalidSubmissionNeverReachesCollaborators(t *testing.T) {
	env := setupEnvironment(t)

	form := sampleForm(uuid.NewString())
	form.Set("email", "not-an-email")
	resp := env.submit(t, form)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, env.notion.Pages())
	select {
	case <-env.mails:
		t.Fatal("no notification expected for an invalid submission")
	default:
	}
}

func TestE2E_RecordStoreFailureAllowsRetry(t *testing.T) {
	env := setupEnvironment(t)
	formID := uuid.NewString()

	env.notion.setFail(true)
	resp := env.submit(t, sampleForm(formID))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.False(t, env.redis.Exists("e2e:submission:"+formID), "a failed attempt releases the form instance")

	env.notion.setFail(false)
	resp = env.submit(t, sampleForm(formID))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, env.notion.Pages(), 1)
}

func TestE2E_ConcurrentSubmitsCreateOneRecord(t *testing.T) {
	env := setupEnvironment(t)
	formID := uuid.NewString()

	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := env.client.PostForm(env.server.URL+"/", sampleForm(formID))
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	redirects := 0
	for code := range codes {
		switch code {
		case http.StatusSeeOther:
			redirects++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, redirects)
	assert.Len(t, env.notion.Pages(), 1)
}

func TestE2E_Readiness(t *testing.T) {
	env := setupEnvironment(t)

	resp, err := env.client.Get(env.server.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.redis.SetError("LOADING redis is loading the dataset in memory")

	resp2, err := env.client.Get(env.server.URL + "/ready")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}
