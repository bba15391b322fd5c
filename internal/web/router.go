// Package web serves the contact form and its JSON API over gin.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/errors"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
)

//go:embed templates/*.html static/*
var assets embed.FS

type RouterDeps struct {
	Logger    logger.Logger
	Submitter Submitter
	Checks    map[string]ReadinessCheck
	// LoadingMessage is the in-progress text shown by the page script.
	LoadingMessage string
	// Metrics serves /metrics. Defaults to the prometheus default registry.
	Metrics http.Handler
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if deps.Submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}

	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}

	r := gin.New()
	r.Use(errors.NewErrorHandler(deps.Logger).Middleware())
	r.Use(RequestLogger(deps.Logger))
	r.Use(SecurityHeaders())
	r.SetHTMLTemplate(tmpl)

	if _, err := NewContactHandler(r, deps.Submitter, deps.Logger, deps.LoadingMessage); err != nil {
		return nil, fmt.Errorf("failed to register contact routes: %w", err)
	}

	r.StaticFS("/static", http.FS(static))
	r.GET("/health", health)
	r.GET("/ready", ready(deps.Checks))
	r.GET("/metrics", gin.WrapH(deps.Metrics))

	return r, nil
}
