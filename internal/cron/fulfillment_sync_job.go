package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/humidityzone-backend/internal/fulfillment"
	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

const (
	defaultSyncGrace     = 10 * time.Minute
	defaultSyncBatchSize = 50
)

// FulfillmentSyncJobParams configure the fulfillment retry job.
type FulfillmentSyncJobParams struct {
	Logger    *logger.Logger
	Store     unsyncedOrderStore
	Publisher fulfillmentPublisher
	Lock      Lock
	Grace     time.Duration
	BatchSize int
}

type unsyncedOrderStore interface {
	FindUnsyncedCompleted(ctx context.Context, settledBefore time.Time, limit int) ([]models.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	fulfillment.Ledger
}

type fulfillmentPublisher interface {
	CheckConfigured() error
	Publish(ctx context.Context, order models.Order, items []models.OrderItem) (int64, error)
}

// SyncReport summarizes one sync pass. Invalid counts the failed orders that
// were parked with unpublishable items; Skipped those claimed elsewhere.
type SyncReport struct {
	Found   int `json:"found"`
	Synced  int `json:"synced_count"`
	Failed  int `json:"failed_count"`
	Invalid int `json:"invalid_count"`
	Skipped int `json:"skipped_count"`
}

// FulfillmentSyncJob publishes Completed orders whose fulfillment order was never
// recorded, e.g. because the platform call failed during the payment notification.
type FulfillmentSyncJob struct {
	logg      *logger.Logger
	store     unsyncedOrderStore
	publisher fulfillmentPublisher
	lock      Lock
	grace     time.Duration
	batchSize int
	now       func() time.Time
}

// NewFulfillmentSyncJob builds the retry job. Lock is optional.
func NewFulfillmentSyncJob(params FulfillmentSyncJobParams) (*FulfillmentSyncJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultSyncGrace
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSyncBatchSize
	}
	return &FulfillmentSyncJob{
		logg:      params.Logger,
		store:     params.Store,
		publisher: params.Publisher,
		lock:      params.Lock,
		grace:     grace,
		batchSize: batch,
		now:       time.Now,
	}, nil
}

func (j *FulfillmentSyncJob) Name() string { return "fulfillment-sync" }

func (j *FulfillmentSyncJob) Run(ctx context.Context) error {
	_, err := j.Sync(ctx)
	return err
}

// Sync runs one pass. Per-order failures are logged, counted and combined into
// the returned error; the report is always populated.
func (j *FulfillmentSyncJob) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}
	if err := j.publisher.CheckConfigured(); err != nil {
		return report, err
	}

	if j.lock != nil {
		lease, err := j.lock.TryAcquire(ctx)
		if err != nil {
			return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync lock")
		}
		if lease == nil {
			return report, pkgerrors.New(pkgerrors.CodeConflict, "fulfillment sync already running")
		}
		defer func() {
			if relErr := lease.Release(ctx); relErr != nil {
				j.logg.Error(ctx, "failed to release sync lock", relErr)
			}
		}()
	}

	cutoff := j.now().UTC().Add(-j.grace)
	pending, err := j.store.FindUnsyncedCompleted(ctx, cutoff, j.batchSize)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "query unsynced orders")
	}
	report.Found = len(pending)

	var errs error
	for _, order := range pending {
		orderCtx := j.logg.WithOrderID(ctx, order.ID)
		err := j.syncOrder(orderCtx, order)
		if errors.Is(err, fulfillment.ErrAlreadyClaimed) {
			report.Skipped++
			j.logg.Info(orderCtx, "fulfillment claimed elsewhere; skipping")
			continue
		}
		if err != nil {
			report.Failed++
			if fulfillment.IsInvalidItems(err) {
				report.Invalid++
			}
			orderCtx = j.logg.WithField(orderCtx, "retryable", pkgerrors.IsRetryable(err))
			j.logg.Error(orderCtx, "fulfillment sync failed", err)
			errs = multierr.Append(errs, fmt.Errorf("order %d: %w", order.ID, err))
			continue
		}
		report.Synced++
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"found":   report.Found,
		"synced":  report.Synced,
		"failed":  report.Failed,
		"invalid": report.Invalid,
		"skipped": report.Skipped,
	})
	j.logg.Info(ctx, "fulfillment sync complete")
	return report, errs
}

func (j *FulfillmentSyncJob) syncOrder(ctx context.Context, order models.Order) error {
	items, err := j.store.ListItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	_, err = fulfillment.Fulfill(ctx, j.store, j.publisher, order, items)
	return err
}
