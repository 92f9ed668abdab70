package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pipeline/internal/models"
	"pipeline/internal/repositories"
)

// ActivityPublisher forwards committed activity entries to the audit sink.
type ActivityPublisher interface {
	Publish(ctx context.Context, entry models.ActivityEntry) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.ActivityEntry) error { return nil }

// activityRecorder writes entries in the caller's transaction and publishes
// them once that transaction has committed.
type activityRecorder struct {
	repo      *repositories.ActivityRepository
	publisher ActivityPublisher
}

func newActivityRecorder(repo *repositories.ActivityRepository, publisher ActivityPublisher) activityRecorder {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return activityRecorder{repo: repo, publisher: publisher}
}

func (a activityRecorder) record(ctx context.Context, q repositories.Querier, tenant models.Tenant,
	entityType string, entityID int64, action string, details any, at time.Time) (models.ActivityEntry, error) {
	entry := models.ActivityEntry{
		TenantID:   tenant.ID,
		UserID:     tenant.UserID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedAt:  at,
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return entry, err
		}
		entry.Details = string(b)
	}
	if err := a.repo.WithTx(q).Append(ctx, &entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// publish is fire-and-forget: the mutation already committed.
func (a activityRecorder) publish(ctx context.Context, entries ...models.ActivityEntry) {
	for _, e := range entries {
		if err := a.publisher.Publish(ctx, e); err != nil {
			log.Printf("[activity][publish][error] tenant=%d entity=%s/%d action=%s err=%v",
				e.TenantID, e.EntityType, e.EntityID, e.Action, err)
		}
	}
}
