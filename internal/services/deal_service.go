package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pipeline/internal/metrics"
	"pipeline/internal/models"
	"pipeline/internal/repositories"
)

type CreateDealInput struct {
	ClientID          int64      `json:"client_id"`
	ProductID         *int64     `json:"product_id"`
	Title             string     `json:"title"`
	NegotiatedValue   *string    `json:"negotiated_value"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	CurrentStageID    *int64     `json:"current_stage_id"`
	Notes             *string    `json:"notes"`
}

// UpdateDealInput carries the non-structural fields; nil means unchanged.
type UpdateDealInput struct {
	Title             *string    `json:"title"`
	NegotiatedValue   *string    `json:"negotiated_value"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	Notes             *string    `json:"notes"`
}

type DealService struct {
	tx          *repositories.TxManager
	Repo        *repositories.DealRepository
	StageRepo   *repositories.StageRepository
	Ledger      *repositories.TransitionRepository
	activity    activityRecorder
	transitions map[models.DealStatus]map[models.DealStatus]bool
	now         func() time.Time
}

func NewDealService(
	tx *repositories.TxManager,
	dealRepo *repositories.DealRepository,
	stageRepo *repositories.StageRepository,
	ledger *repositories.TransitionRepository,
	activityRepo *repositories.ActivityRepository,
	publisher ActivityPublisher,
	allowReopen bool,
) *DealService {
	table := DealTransitions
	if !allowReopen {
		table = closingTransitions
	}
	return &DealService{
		tx:          tx,
		Repo:        dealRepo,
		StageRepo:   stageRepo,
		Ledger:      ledger,
		activity:    newActivityRecorder(activityRepo, publisher),
		transitions: table,
		now:         repositories.Now,
	}
}

// negotiated_value is stored as NUMERIC(14,2).
const moneyScale = 2

var maxMoney = decimal.New(1, 12)

func parseMoney(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, invalid("negotiated_value %q is not a decimal number", *raw)
	}
	if v.IsNegative() {
		return nil, invalid("negotiated_value must not be negative")
	}
	if !v.Equal(v.Round(moneyScale)) {
		return nil, invalid("negotiated_value must have at most %d decimal places", moneyScale)
	}
	if v.GreaterThanOrEqual(maxMoney) {
		return nil, invalid("negotiated_value must be below %s", maxMoney.String())
	}
	return &v, nil
}

func (s *DealService) Create(ctx context.Context, tenant models.Tenant, in CreateDealInput) (*models.Deal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if in.ClientID <= 0 {
		return nil, invalid("client_id is required")
	}
	value, err := parseMoney(in.NegotiatedValue)
	if err != nil {
		return nil, err
	}

	now := s.now()
	deal := &models.Deal{
		TenantID:          tenant.ID,
		ClientID:          in.ClientID,
		ProductID:         in.ProductID,
		Title:             title,
		NegotiatedValue:   value,
		ExpectedCloseDate: utcPtr(in.ExpectedCloseDate),
		Status:            models.DealOpen,
		CurrentStageID:    in.CurrentStageID,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var entry models.ActivityEntry
	err = s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		if deal.CurrentStageID != nil {
			if err := s.requireStage(ctx, q, tenant, *deal.CurrentStageID); err != nil {
				return err
			}
		}
		err := s.Repo.WithTx(q).Create(ctx, deal)
		if errors.Is(err, repositories.ErrMissingReference) {
			return &NotFoundError{Entity: "stage", ID: *deal.CurrentStageID}
		}
		if err != nil {
			return err
		}
		entry, err = s.activity.record(ctx, q, tenant, models.EntityDeal, deal.ID, "created",
			map[string]any{"title": deal.Title}, now)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("deals.create")
		return nil, storageFailure("create deal", err)
	}
	s.activity.publish(ctx, entry)
	log.Printf("[deal][create][ok] tenant=%d deal=%d", tenant.ID, deal.ID)
	return deal, nil
}

func (s *DealService) Get(ctx context.Context, tenant models.Tenant, id int64) (*models.Deal, error) {
	deal, err := s.Repo.GetByID(ctx, tenant.ID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Entity: "deal", ID: id}
	}
	if err != nil {
		return nil, storageFailure("get deal", err)
	}
	return deal, nil
}

func (s *DealService) List(ctx context.Context, tenant models.Tenant, f models.DealFilter) ([]models.Deal, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("unknown status %q", f.Status)
	}
	deals, err := s.Repo.Filter(ctx, tenant.ID, f)
	if err != nil {
		metrics.RecordStorageError("deals.list")
		return nil, storageFailure("list deals", err)
	}
	return deals, nil
}

func (s *DealService) ListByClient(ctx context.Context, tenant models.Tenant, clientID int64) ([]models.Deal, error) {
	if clientID <= 0 {
		return nil, invalid("client_id is required")
	}
	return s.List(ctx, tenant, models.DealFilter{ClientID: clientID})
}

// MoveToStage appends a ledger record and points the deal at the new stage
// in one transaction. Concurrent moves are last-write-wins on the deal, but
// every move keeps its own record.
func (s *DealService) MoveToStage(ctx context.Context, tenant models.Tenant, dealID, toStageID int64) (*models.Deal, error) {
	var (
		deal  *models.Deal
		entry models.ActivityEntry
	)
	err := s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		deals := s.Repo.WithTx(q)
		var err error
		deal, err = deals.GetByID(ctx, tenant.ID, dealID)
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Entity: "deal", ID: dealID}
		}
		if err != nil {
			return err
		}
		if err := s.requireStage(ctx, q, tenant, toStageID); err != nil {
			return err
		}

		now := s.now()
		rec := &models.TransitionRecord{
			DealID:      deal.ID,
			TenantID:    tenant.ID,
			FromStageID: deal.CurrentStageID,
			ToStageID:   toStageID,
			MovedAt:     now,
			MovedBy:     tenant.UserID,
		}
		if err := s.Ledger.WithTx(q).Append(ctx, rec); err != nil {
			return err
		}
		err = deals.UpdateStage(ctx, tenant.ID, deal.ID, toStageID, now)
		if errors.Is(err, repositories.ErrMissingReference) {
			return &NotFoundError{Entity: "stage", ID: toStageID}
		}
		if err != nil {
			return err
		}
		entry, err = s.activity.record(ctx, q, tenant, models.EntityDeal, deal.ID, "moved",
			map[string]any{"from_stage_id": rec.FromStageID, "to_stage_id": toStageID}, now)
		if err != nil {
			return err
		}
		deal.CurrentStageID = &toStageID
		deal.UpdatedAt = now
		return nil
	})
	if err != nil {
		metrics.RecordStorageError("deals.move")
		return nil, storageFailure("move deal", err)
	}
	s.activity.publish(ctx, entry)
	metrics.RecordStageMove()
	log.Printf("[deal][move][ok] tenant=%d deal=%d to_stage=%d", tenant.ID, dealID, toStageID)
	return deal, nil
}

// UpdateStatus applies a status change allowed by the transition table.
// closed_at follows the status and lost_reason is kept only on lost deals.
func (s *DealService) UpdateStatus(ctx context.Context, tenant models.Tenant, dealID int64, status models.DealStatus, lostReason *string) (*models.Deal, error) {
	if !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}

	var (
		deal  *models.Deal
		entry models.ActivityEntry
	)
	err := s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		deals := s.Repo.WithTx(q)
		var err error
		deal, err = deals.GetByID(ctx, tenant.ID, dealID)
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Entity: "deal", ID: dealID}
		}
		if err != nil {
			return err
		}
		if !canTransition(deal.Status, status, s.transitions) {
			return &ValidationError{
				Code:    CodeInvalidTransition,
				Message: "cannot change deal status from " + string(deal.Status) + " to " + string(status),
			}
		}

		now := s.now()
		deal.Status = status
		deal.UpdatedAt = now
		deal.LostReason = nil
		deal.ClosedAt = nil
		if status != models.DealOpen {
			deal.ClosedAt = &now
		}
		if status == models.DealLost && lostReason != nil && strings.TrimSpace(*lostReason) != "" {
			reason := strings.TrimSpace(*lostReason)
			deal.LostReason = &reason
		}
		if err := deals.UpdateStatus(ctx, deal); err != nil {
			return err
		}
		entry, err = s.activity.record(ctx, q, tenant, models.EntityDeal, deal.ID, "status_"+string(status),
			map[string]any{"status": status, "lost_reason": deal.LostReason}, now)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("deals.status")
		return nil, storageFailure("update deal status", err)
	}
	s.activity.publish(ctx, entry)
	metrics.RecordStatusChange(string(status))
	log.Printf("[deal][status][ok] tenant=%d deal=%d status=%s", tenant.ID, dealID, status)
	return deal, nil
}

// Update edits title, value, expected close date and notes. Status and
// stage are never touched here.
func (s *DealService) Update(ctx context.Context, tenant models.Tenant, dealID int64, in UpdateDealInput) (*models.Deal, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, invalid("title must not be empty")
	}
	value, err := parseMoney(in.NegotiatedValue)
	if err != nil {
		return nil, err
	}

	var (
		deal  *models.Deal
		entry models.ActivityEntry
	)
	err = s.tx.RunInTx(ctx, func(q repositories.Querier) error {
		deals := s.Repo.WithTx(q)
		var err error
		deal, err = deals.GetByID(ctx, tenant.ID, dealID)
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Entity: "deal", ID: dealID}
		}
		if err != nil {
			return err
		}

		changed := map[string]any{}
		if in.Title != nil {
			deal.Title = strings.TrimSpace(*in.Title)
			changed["title"] = deal.Title
		}
		if value != nil {
			deal.NegotiatedValue = value
			changed["negotiated_value"] = value.String()
		}
		if in.ExpectedCloseDate != nil {
			deal.ExpectedCloseDate = utcPtr(in.ExpectedCloseDate)
			changed["expected_close_date"] = deal.ExpectedCloseDate
		}
		if in.Notes != nil {
			deal.Notes = in.Notes
			changed["notes"] = *in.Notes
		}
		deal.UpdatedAt = s.now()
		if err := deals.UpdateFields(ctx, deal); err != nil {
			return err
		}
		entry, err = s.activity.record(ctx, q, tenant, models.EntityDeal, deal.ID, "updated", changed, deal.UpdatedAt)
		return err
	})
	if err != nil {
		metrics.RecordStorageError("deals.update")
		return nil, storageFailure("update deal", err)
	}
	s.activity.publish(ctx, entry)
	return deal, nil
}

// History returns the deal's stage moves, newest first.
func (s *DealService) History(ctx context.Context, tenant models.Tenant, dealID int64) ([]models.TransitionRecord, error) {
	if _, err := s.Get(ctx, tenant, dealID); err != nil {
		return nil, err
	}
	records, err := s.Ledger.ListForDeal(ctx, tenant.ID, dealID)
	if err != nil {
		metrics.RecordStorageError("deals.history")
		return nil, storageFailure("deal history", err)
	}
	return records, nil
}

func (s *DealService) requireStage(ctx context.Context, q repositories.Querier, tenant models.Tenant, stageID int64) error {
	_, err := s.StageRepo.WithTx(q).GetByID(ctx, tenant.ID, stageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &NotFoundError{Entity: "stage", ID: stageID}
	}
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
