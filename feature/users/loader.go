package users

import (
	"admin-backend/core/cache"
	"admin-backend/core/retry"
	"admin-backend/core/storage"
	"admin-backend/feature/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the users feature.
func NewFeature(db *gorm.DB, authSvc *auth.Service, c *cache.Cache, store storage.Client, bucket string, rcfg retry.Config, logger *zap.Logger) *Feature {
	svc := NewService(db, authSvc, c, store, bucket, rcfg, logger)
	return &Feature{service: svc, handler: NewHandler(svc, authSvc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "users"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
