package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pipeline/internal/metrics"
	"pipeline/internal/models"
	"pipeline/internal/repositories"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type CreateStageInput struct {
	Name     string  `json:"name" binding:"required"`
	Color    *string `json:"color"`
	Position int     `json:"position"`
}

// UpdateStageInput is a partial update; nil fields are left untouched.
type UpdateStageInput struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	Position *int    `json:"position"`
}

type StageService struct {
	tx       *repositories.TxManager
	Repo     *repositories.StageRepository
	DealRepo *repositories.DealRepository
	activity activityRecorder
	group    singleflight.Group
	now      func() time.Time
}

func NewStageService(
	tx *repositories.TxManager,
	stageRepo *repositories.StageRepository,
	dealRepo *repositories.DealRepository,
	activityRepo *repositories.ActivityRepository,
	publisher ActivityPublisher,
) *StageService {
	return &StageService{
		tx:       tx,
		Repo:     stageRepo,
		DealRepo: dealRepo,
		activity: newActivityRecorder(activityRepo, publisher),
		now:      repositories.Now,
	}
}

func (s *StageService) List(ctx context.Context, tenant models.Tenant) ([]models.Stage, error) {
	stages, err := s.Repo.ListByTenant(ctx, tenant.ID)
	if err != nil {
		metrics.RecordStorageError("stages.list")
		return nil, storageFailure("list stages", err)
	}
	return stages, nil
}

func (s *StageService) Create(ctx context.Context, tenant models.Tenant, in CreateStageInput) (*models.Stage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("stage name is required")
	}
	color := models.DefaultStageColor
	if in.Color != nil && *in.Color != "" {
		if !hexColor.MatchString(*in.Color) {
			return nil, invalid("color must be #RRGGBB, got %q", *in.Color)
		}
		color = strings.ToUpper(*in.Color)
	}

	now := s.now()
	stage := &models.Stage{
		TenantID:  tenant.ID,
		Name:      name,
		Color:     color,
		Position:  in.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var entry models.ActivityEntry
	err := s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		if err := s.Repo.WithTx(q).Create(ctx, stage); err != nil {
			return err
		}
		var err error
		entry, err = s.activity.record(ctx, q, tenant, models.EntityStage, stage.ID, "created",
			map[string]any{"name": stage.Name, "position": stage.Position}, now)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("stages.create")
		return nil, storageFailure("create stage", err)
	}
	s.activity.publish(ctx, entry)
	return stage, nil
}

func (s *StageService) Update(ctx context.Context, tenant models.Tenant, id int64, in UpdateStageInput) (*models.Stage, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("stage name must not be empty")
	}
	if in.Color != nil && !hexColor.MatchString(*in.Color) {
		return nil, invalid("color must be #RRGGBB, got %q", *in.Color)
	}

	var (
		stage *models.Stage
		entry models.ActivityEntry
	)
	err := s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		repo := s.Repo.WithTx(q)
		current, err := repo.GetByID(ctx, tenant.ID, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Entity: "stage", ID: id}
		}
		if err != nil {
			return err
		}

		changed := map[string]any{}
		if in.Name != nil {
			current.Name = strings.TrimSpace(*in.Name)
			changed["name"] = current.Name
		}
		if in.Color != nil {
			current.Color = strings.ToUpper(*in.Color)
			changed["color"] = current.Color
		}
		if in.Position != nil {
			current.Position = *in.Position
			changed["position"] = current.Position
		}
		current.UpdatedAt = s.now()
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		stage = current
		entry, err = s.activity.record(ctx, q, tenant, models.EntityStage, id, "updated", changed, current.UpdatedAt)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("stages.update")
		return nil, storageFailure("update stage", err)
	}
	s.activity.publish(ctx, entry)
	return stage, nil
}

// Delete removes the stage and detaches every deal that sat in it. A stage
// that does not exist for the tenant is a no-op. It returns the number of
// detached deals.
func (s *StageService) Delete(ctx context.Context, tenant models.Tenant, id int64) (int64, error) {
	var (
		detached int64
		found    bool
		entry    models.ActivityEntry
	)
	err := s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		stages := s.Repo.WithTx(q)
		stage, err := stages.GetByID(ctx, tenant.ID, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		now := s.now()
		detached, err = s.DealRepo.WithTx(q).DetachStage(ctx, tenant.ID, id, now)
		if err != nil {
			return err
		}
		if err := stages.Delete(ctx, tenant.ID, id); err != nil {
			return err
		}
		entry, err = s.activity.record(ctx, q, tenant, models.EntityStage, id, "deleted",
			map[string]any{"name": stage.Name, "detached_deals": detached}, now)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("stages.delete")
		return 0, storageFailure("delete stage", err)
	}
	if found {
		s.activity.publish(ctx, entry)
		log.Printf("[stage][delete][ok] tenant=%d stage=%d detached=%d", tenant.ID, id, detached)
	}
	return detached, nil
}

type bootstrapResult struct {
	created bool
	stages  []models.Stage
}

// BootstrapDefaults creates the default pipeline when the tenant has no
// stages. Concurrent calls for one tenant share a single attempt in-process,
// and the bootstrap row lock serialises attempts across processes.
func (s *StageService) BootstrapDefaults(ctx context.Context, tenant models.Tenant) (bool, []models.Stage, error) {
	key := strconv.FormatInt(tenant.ID, 10)
	// joined callers share the flight, so one caller cancelling must not
	// fail the others
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.bootstrap(flightCtx, tenant)
	})
	if err != nil {
		return false, nil, storageFailure("bootstrap stages", err)
	}
	res := v.(bootstrapResult)
	return res.created, res.stages, nil
}

func (s *StageService) bootstrap(ctx context.Context, tenant models.Tenant) (bootstrapResult, error) {
	var (
		res   bootstrapResult
		entry models.ActivityEntry
	)
	err := s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		repo := s.Repo.WithTx(q)
		now := s.now()
		if err := repo.LockBootstrap(ctx, tenant.ID, now); err != nil {
			return err
		}
		n, err := repo.CountByTenant(ctx, tenant.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			for _, tpl := range models.DefaultStages {
				stage := &models.Stage{
					TenantID:  tenant.ID,
					Name:      tpl.Name,
					Color:     tpl.Color,
					Position:  tpl.Position,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := repo.Create(ctx, stage); err != nil {
					return err
				}
			}
			res.created = true
			entry, err = s.activity.record(ctx, q, tenant, models.EntityStage, 0, "bootstrapped",
				map[string]any{"stages": len(models.DefaultStages)}, now)
			if err != nil {
				return err
			}
		}
		res.stages, err = repo.ListByTenant(ctx, tenant.ID)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("stages.bootstrap")
		return bootstrapResult{}, err
	}
	metrics.RecordBootstrap(res.created)
	if res.created {
		s.activity.publish(ctx, entry)
		log.Printf("[stage][bootstrap][ok] tenant=%d stages=%d", tenant.ID, len(res.stages))
	}
	return res, nil
}
