package http

import (
	"github.com/samirrijal/annotile/internal/adapters/valkey"
	"github.com/samirrijal/annotile/internal/core/usecases"
	"github.com/samirrijal/annotile/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Captures    *usecases.CaptureService
	Annotations *usecases.AnnotationService
	Cache       *valkey.Cache
	Config      *config.Config
}
