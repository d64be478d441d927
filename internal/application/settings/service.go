package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-homeservices-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldSiteName        = "site_name"
	fieldSupportEmail    = "support_email"
	fieldSupportPhone    = "support_phone"
	fieldCurrency        = "currency"
	fieldMaintenanceMode = "maintenance_mode"
)

// Service owns the single site-settings document. Build one in main and hand
// it to whatever needs settings.
type Service interface {
	// Get returns the settings, writing the defaults on first access.
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, req domain.UpdateSettingsRequest) (*domain.Settings, error)
}

type settingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Create(ctx context.Context, s *domain.Settings) error
	Update(ctx context.Context, updates map[string]interface{}) error
}

type ServiceDeps struct {
	SettingsRepo settingsStore
	Now          func() time.Time
}

type service struct {
	repo settingsStore
	now  func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: deps.SettingsRepo, now: now}
}

func (s *service) Get(ctx context.Context) (*domain.Settings, error) {
	cur, err := s.repo.Get(ctx)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	def := domain.DefaultSettings(s.now().UTC())
	if err := s.repo.Create(ctx, def); err != nil {
		// Another instance created it first.
		if errors.Is(err, domain.ErrConflict) {
			return s.repo.Get(ctx)
		}
		return nil, err
	}
	return def, nil
}

func (s *service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (*domain.Settings, error) {
	// Make sure the document exists before patching it.
	cur, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.SiteName != nil {
		updates[fieldSiteName] = strings.TrimSpace(*req.SiteName)
	}
	if req.SupportEmail != nil {
		updates[fieldSupportEmail] = domain.NormalizeEmail(*req.SupportEmail)
	}
	if req.SupportPhone != nil {
		updates[fieldSupportPhone] = strings.TrimSpace(*req.SupportPhone)
	}
	if req.Currency != nil {
		updates[fieldCurrency] = strings.ToUpper(*req.Currency)
	}
	if req.MaintenanceMode != nil {
		updates[fieldMaintenanceMode] = *req.MaintenanceMode
	}
	if len(updates) == 0 {
		return cur, nil
	}
	if err := s.repo.Update(ctx, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx)
}
