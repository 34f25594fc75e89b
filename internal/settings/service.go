package settings

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for settings.
type RepositoryPort interface {
	All(ctx context.Context) (map[string]Setting, error)
	Upsert(ctx context.Context, key, value string) (Setting, error)
}

// Recorder logs setting changes by key.
type Recorder = activity.KeyRecorder

// Service reads and writes clinic settings.
type Service struct {
	repo     RepositoryPort
	authz    shared.Authorizer
	activity Recorder
	defaults map[string]string
}

// NewService builds Service instance. defaults fill keys never stored.
func NewService(repo RepositoryPort, authorizer shared.Authorizer, recorder Recorder, defaults map[string]string) *Service {
	return &Service{repo: repo, authz: authorizer, activity: recorder, defaults: defaults}
}

// List returns every known key, stored or defaulted.
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionViewAny, authz.ResourceSetting, nil); err != nil {
		return nil, err
	}
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	out := make([]Setting, 0, len(Keys()))
	for _, key := range Keys() {
		if st, ok := stored[key]; ok {
			out = append(out, st)
			continue
		}
		out = append(out, Setting{Key: key, Value: s.defaults[key]})
	}
	return out, nil
}

// Update stores value under key. Unknown keys are not found.
func (s *Service) Update(ctx context.Context, key string, req UpdateRequest) (Setting, error) {
	if !slices.Contains(Keys(), key) {
		return Setting{}, fmt.Errorf("%w: setting %q", httpx.ErrNotFound, key)
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceSetting, authz.Setting{Key: key}); err != nil {
		return Setting{}, err
	}
	value := strings.TrimSpace(req.Value)
	if key == KeyTimezone && value != "" {
		if _, err := time.LoadLocation(value); err != nil {
			return Setting{}, fmt.Errorf("%w: unknown timezone %q", httpx.ErrValidation, value)
		}
	}
	st, err := s.repo.Upsert(ctx, key, value)
	if err != nil {
		return Setting{}, fmt.Errorf("update setting: %w", err)
	}
	activity.BestEffortKey(ctx, s.activity, "update", "setting", key, map[string]any{"value": value})
	return st, nil
}
