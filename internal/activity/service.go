package activity

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/shared"
)

// Repository is the persistence port of the activity log.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filters, page shared.Page) ([]Entry, int, error)
}

// Recorder is what domain services depend on to log mutations.
type Recorder interface {
	Record(ctx context.Context, action, entity string, entityID int64, meta map[string]any) error
}

// Service records and lists activity.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record stores one entry attributed to the request principal. Failures are
// logged and returned; callers decide whether they are fatal.
func (s *Service) Record(ctx context.Context, action, entity string, entityID int64, meta map[string]any) error {
	if entityID <= 0 {
		return errors.New("activity: entity id required")
	}
	return s.RecordKey(ctx, action, entity, strconv.FormatInt(entityID, 10), meta)
}

// RecordKey is Record for entities identified by a string key.
func (s *Service) RecordKey(ctx context.Context, action, entity, key string, meta map[string]any) error {
	if action == "" || entity == "" || key == "" {
		return errors.New("activity: action, entity and entity id required")
	}
	e := Entry{
		Action:     action,
		Entity:     entity,
		EntityID:   key,
		Meta:       meta,
		RequestID:  middleware.GetReqID(ctx),
		OccurredAt: s.now().UTC(),
	}
	if p := authz.PrincipalFromContext(ctx); p != nil {
		e.ActorID = p.ID
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		if s.logger != nil {
			s.logger.Error("record activity", slog.String("action", action), slog.String("entity", entity), slog.Any("error", err))
		}
		return err
	}
	return nil
}

// List returns a page of entries.
func (s *Service) List(ctx context.Context, f Filters, page shared.Page) ([]Entry, shared.Pagination, error) {
	entries, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, shared.NewPagination(page, total), nil
}

// KeyRecorder writes entries for entities identified by a string key.
type KeyRecorder interface {
	RecordKey(ctx context.Context, action, entity, key string, meta map[string]any) error
}

// BestEffort records an entry for a mutation that has already been committed.
// A failed write is logged by the recorder and does not fail the caller.
func BestEffort(ctx context.Context, r Recorder, action, entity string, entityID int64, meta map[string]any) {
	if r == nil {
		return
	}
	_ = r.Record(ctx, action, entity, entityID, meta)
}

// BestEffortKey is BestEffort for key-identified entities.
func BestEffortKey(ctx context.Context, r KeyRecorder, action, entity, key string, meta map[string]any) {
	if r == nil {
		return
	}
	_ = r.RecordKey(ctx, action, entity, key, meta)
}

// Nop discards entries. Tests and tools without a database use it.
type Nop struct{}

func (Nop) Record(context.Context, string, string, int64, map[string]any) error { return nil }

func (Nop) RecordKey(context.Context, string, string, string, map[string]any) error { return nil }

var (
	_ Recorder = (*Service)(nil)
	_ Recorder = Nop{}

	_ KeyRecorder = (*Service)(nil)
	_ KeyRecorder = Nop{}
)
