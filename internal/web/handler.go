package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/errors"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
	submissionpipeline "github.com/emmanuel-sarpedon/contact-form/internal/workers/contact/submission-pipeline"
	validatesubmission "github.com/emmanuel-sarpedon/contact-form/internal/workers/contact/validate-submission"
)

const formTemplate = "contact.html"

// Submitter is the part of the submission pipeline the HTTP layer drives.
type Submitter interface {
	Submit(ctx context.Context, formID string, raw map[string]interface{}, feedback submissionpipeline.Feedback, nav submissionpipeline.Navigator) *submissionpipeline.Result
	State(ctx context.Context, formID string) (models.SubmissionState, error)
}

type ContactHandler struct {
	submitter      Submitter
	logger         logger.Logger
	schema         []byte
	loadingMessage string
}

// NewContactHandler registers the contact form routes on r.
// loadingMessage is shown by the page script while a submit is in flight.
func NewContactHandler(r gin.IRoutes, submitter Submitter, log logger.Logger, loadingMessage string) (*ContactHandler, error) {
	schema, err := validatesubmission.SchemaJSON()
	if err != nil {
		return nil, err
	}

	h := &ContactHandler{
		submitter:      submitter,
		logger:         log,
		schema:         schema,
		loadingMessage: loadingMessage,
	}

	r.GET("/", h.ShowForm)
	r.POST("/", h.SubmitForm)
	r.POST("/api/contact", h.SubmitJSON)
	r.POST("/api/contact/validate", h.ValidateFields)
	r.GET("/api/contact/schema", h.Schema)

	return h, nil
}

// ShowForm renders an empty form for a fresh form instance. An existing
// instance can be reopened with ?formId=, in which case its state decides
// whether the inputs are enabled.
func (h *ContactHandler) ShowForm(c *gin.Context) {
	formID := c.Query(formIDField)
	state := models.StateIdle

	if formID == "" {
		formID = uuid.NewString()
	} else if current, err := h.submitter.State(c.Request.Context(), formID); err != nil {
		h.logger.Warn("Could not read form instance state", map[string]interface{}{
			"formId": formID,
			"error":  err.Error(),
		})
	} else {
		state = current
	}

	h.render(c, http.StatusOK, newFormView(formID, nil, nil, state, nil))
}

// SubmitForm handles the form-encoded submit of the HTML page. Success leaves
// the form with 303 See Other so the filled form is not kept in history.
func (h *ContactHandler) SubmitForm(c *gin.Context) {
	formID, raw := bindForm(c)
	feedback := &flashFeedback{}
	nav := &redirectNavigator{}

	result := h.submitter.Submit(c.Request.Context(), formID, raw, feedback, nav)

	switch result.State {
	case models.StateSucceeded:
		if nav.calls > 0 {
			c.Redirect(http.StatusSeeOther, nav.url)
			return
		}
		h.render(c, http.StatusOK, newFormView(result.FormID, raw, nil, models.StateSucceeded, feedback.last))
	case models.StateInvalid:
		h.render(c, http.StatusUnprocessableEntity, newFormView(result.FormID, raw, result.Violations, models.StateIdle, nil))
	case models.StateIgnored:
		state := ignoredState(result.ErrorCode)
		h.render(c, http.StatusConflict, newFormView(result.FormID, raw, nil, state, ignoredFlash(state, result.Message)))
	default:
		h.render(c, statusOf(result), newFormView(result.FormID, raw, nil, models.StateIdle, feedback.last))
	}
}

func (h *ContactHandler) render(c *gin.Context, status int, view formView) {
	view.LoadingMessage = h.loadingMessage
	c.HTML(status, formTemplate, view)
}

type submitResponse struct {
	FormID         string                  `json:"formId"`
	State          models.SubmissionState  `json:"state"`
	Message        string                  `json:"message,omitempty"`
	Violations     []models.FieldViolation `json:"violations,omitempty"`
	Redirect       string                  `json:"redirect,omitempty"`
	ReplaceHistory bool                    `json:"replaceHistory"`
	Code           string                  `json:"code,omitempty"`
}

// SubmitJSON is the script-driven submit. The client performs the navigation
// itself, replacing the history entry when replaceHistory is set.
func (h *ContactHandler) SubmitJSON(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errors.NewMalformedRequestError(err.Error()))
		return
	}

	formID, raw := bindJSON(body)
	feedback := &flashFeedback{}
	nav := &redirectNavigator{}

	result := h.submitter.Submit(c.Request.Context(), formID, raw, feedback, nav)

	resp := submitResponse{
		FormID:     result.FormID,
		State:      result.State,
		Message:    result.Message,
		Violations: result.Violations,
		Code:       result.ErrorCode,
	}
	if nav.calls > 0 {
		resp.Redirect = nav.url
		resp.ReplaceHistory = true
	}

	c.JSON(statusOf(result), resp)
}

// ValidateFields checks the fields present in the body without dispatching.
func (h *ContactHandler) ValidateFields(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errors.NewMalformedRequestError(err.Error()))
		return
	}

	_, raw := bindJSON(body)
	violations := validatesubmission.ValidateFields(raw)

	c.JSON(http.StatusOK, gin.H{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

func (h *ContactHandler) Schema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", h.schema)
}

func statusOf(result *submissionpipeline.Result) int {
	if result.State == models.StateSucceeded {
		return http.StatusOK
	}
	return errors.HTTPStatus(errors.ErrorCode(result.ErrorCode))
}

// ignoredState reports the state that caused an attempt to be ignored.
func ignoredState(code string) models.SubmissionState {
	if errors.ErrorCode(code) == errors.ErrCodeSubmissionAlreadySent {
		return models.StateSucceeded
	}
	return models.StateDispatching
}

// ignoredFlash tells the visitor why the form stays locked.
func ignoredFlash(state models.SubmissionState, message string) *flashView {
	if message == "" {
		return nil
	}
	level := "loading"
	if state == models.StateSucceeded {
		level = "success"
	}
	return &flashView{Level: level, Text: message}
}
