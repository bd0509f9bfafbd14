package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/humidityzone-backend/internal/fulfillment"
	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

type fakeSyncStore struct {
	orders    []models.Order
	items     map[int64][]models.OrderItem
	recorded  map[int64]int64
	claimed   map[int64]bool
	released  []int64
	invalid   []int64
	cutoff    time.Time
	limit     int
	queryErr  error
	recordErr error
}

func (f *fakeSyncStore) FindUnsyncedCompleted(_ context.Context, settledBefore time.Time, limit int) ([]models.Order, error) {
	f.cutoff = settledBefore
	f.limit = limit
	return f.orders, f.queryErr
}

func (f *fakeSyncStore) ListItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeSyncStore) RecordFulfillment(_ context.Context, orderID int64, shopifyOrderID int64) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	if f.recorded == nil {
		f.recorded = map[int64]int64{}
	}
	f.recorded[orderID] = shopifyOrderID
	return nil
}

func (f *fakeSyncStore) ClaimFulfillment(_ context.Context, orderID int64) (bool, error) {
	if f.claimed == nil {
		f.claimed = map[int64]bool{}
	}
	if f.claimed[orderID] {
		return false, nil
	}
	f.claimed[orderID] = true
	return true, nil
}

func (f *fakeSyncStore) ReleaseFulfillment(_ context.Context, orderID int64) error {
	delete(f.claimed, orderID)
	f.released = append(f.released, orderID)
	return nil
}

func (f *fakeSyncStore) MarkFulfillmentInvalid(_ context.Context, orderID int64) error {
	f.invalid = append(f.invalid, orderID)
	return nil
}

type fakeSyncPublisher struct {
	configErr error
	failFor   map[int64]error
	calls     []int64
}

func (f *fakeSyncPublisher) CheckConfigured() error { return f.configErr }

func (f *fakeSyncPublisher) Publish(_ context.Context, order models.Order, _ []models.OrderItem) (int64, error) {
	f.calls = append(f.calls, order.ID)
	if err := f.failFor[order.ID]; err != nil {
		return 0, err
	}
	return order.ID + 9000, nil
}

func newSyncJob(t *testing.T, store *fakeSyncStore, pub *fakeSyncPublisher, lock Lock) *FulfillmentSyncJob {
	t.Helper()
	job, err := NewFulfillmentSyncJob(FulfillmentSyncJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Store:     store,
		Publisher: pub,
		Lock:      lock,
		Grace:     10 * time.Minute,
		BatchSize: 25,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return job
}

func TestFulfillmentSyncPublishesAndRecords(t *testing.T) {
	store := &fakeSyncStore{orders: []models.Order{{ID: 1}, {ID: 2}}}
	pub := &fakeSyncPublisher{}
	job := newSyncJob(t, store, pub, nil)

	report, err := job.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Found != 2 || report.Synced != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if store.recorded[1] != 9001 || store.recorded[2] != 9002 {
		t.Fatalf("unexpected recorded ids %v", store.recorded)
	}
	wantCutoff := time.Date(2026, 5, 1, 11, 50, 0, 0, time.UTC)
	if !store.cutoff.Equal(wantCutoff) {
		t.Fatalf("expected cutoff %v, got %v", wantCutoff, store.cutoff)
	}
	if store.limit != 25 {
		t.Fatalf("expected batch size 25, got %d", store.limit)
	}
}

func TestFulfillmentSyncAggregatesFailures(t *testing.T) {
	store := &fakeSyncStore{orders: []models.Order{{ID: 1}, {ID: 2}, {ID: 3}}}
	pub := &fakeSyncPublisher{failFor: map[int64]error{
		1: errors.New("shopify 500"),
		3: fulfillment.ErrMissingVariant,
	}}
	job := newSyncJob(t, store, pub, nil)

	report, err := job.Sync(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "order 1") || !strings.Contains(err.Error(), "order 3") {
		t.Fatalf("expected both failures in error, got %v", err)
	}
	if report.Synced != 1 || report.Failed != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(pub.calls) != 3 {
		t.Fatalf("expected every order attempted, got %v", pub.calls)
	}
	if report.Invalid != 1 || len(store.invalid) != 1 || store.invalid[0] != 3 {
		t.Fatalf("expected order 3 parked as invalid, report=%+v invalid=%v", report, store.invalid)
	}
	if len(store.released) != 1 || store.released[0] != 1 {
		t.Fatalf("expected order 1 released for retry, got %v", store.released)
	}
}

func TestFulfillmentSyncSkipsClaimedOrders(t *testing.T) {
	store := &fakeSyncStore{orders: []models.Order{{ID: 1}}, claimed: map[int64]bool{1: true}}
	pub := &fakeSyncPublisher{}
	job := newSyncJob(t, store, pub, nil)

	report, err := job.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Skipped != 1 || report.Failed != 0 || len(pub.calls) != 0 {
		t.Fatalf("expected claimed order skipped, report=%+v calls=%v", report, pub.calls)
	}
}

func TestFulfillmentSyncNotConfiguredSkipsStore(t *testing.T) {
	store := &fakeSyncStore{orders: []models.Order{{ID: 1}}}
	pub := &fakeSyncPublisher{configErr: pkgerrors.New(pkgerrors.CodeInternal, "not configured")}
	job := newSyncJob(t, store, pub, nil)

	if _, err := job.Sync(context.Background()); !pkgerrors.Is(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if store.limit != 0 || len(pub.calls) != 0 {
		t.Fatal("expected no store query or publish when not configured")
	}
}

func TestFulfillmentSyncHeldLockIsConflict(t *testing.T) {
	store := &fakeSyncStore{orders: []models.Order{{ID: 1}}}
	pub := &fakeSyncPublisher{}
	lock := &fakeLock{held: true}
	job := newSyncJob(t, store, pub, lock)

	if _, err := job.Sync(context.Background()); !pkgerrors.Is(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatal("expected no publish while another sync holds the lock")
	}
}

func TestFulfillmentSyncReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	job := newSyncJob(t, &fakeSyncStore{}, &fakeSyncPublisher{}, lock)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if lock.held {
		t.Fatal("expected lock released after run")
	}
}

func TestFulfillmentSyncRecordFailureCounts(t *testing.T) {
	store := &fakeSyncStore{orders: []models.Order{{ID: 4}}, recordErr: errors.New("db down")}
	job := newSyncJob(t, store, &fakeSyncPublisher{}, nil)

	report, err := job.Sync(context.Background())
	if err == nil || report.Failed != 1 || report.Synced != 0 {
		t.Fatalf("expected record failure counted, report=%+v err=%v", report, err)
	}
	if !store.claimed[4] || len(store.released) != 0 {
		t.Fatalf("expected claim kept after unrecorded publish, claimed=%v released=%v", store.claimed, store.released)
	}
}
