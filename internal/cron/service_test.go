package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/metrics"
)

type fakeLock struct {
	held bool
	err  error
}

func (f *fakeLock) TryAcquire(context.Context) (Lease, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.held {
		return nil, nil
	}
	f.held = true
	return &fakeLease{lock: f}, nil
}

type fakeLease struct{ lock *fakeLock }

func (f *fakeLease) Release(context.Context) error {
	f.lock.held = false
	return nil
}

type testJob struct {
	name  string
	err   error
	block bool
	runs  int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	if t.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return t.err
}

func newTestService(t *testing.T, lock Lock, timeout time.Duration, jobs ...Job) (*Service, *metrics.CronJobMetrics) {
	t.Helper()
	registry := NewRegistry()
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	m := metrics.NewCronJobMetrics(prometheus.NewRegistry())
	service, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry:   registry,
		Lock:       lock,
		Metrics:    m,
		JobTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service, m
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	lock := &fakeLock{}
	service, _ := newTestService(t, lock, time.Second, failing, ok)

	err := service.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failing: boom") {
		t.Fatalf("expected failing job error, got %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected each job once, ok=%d failing=%d", ok.runs, failing.runs)
	}
	if lock.held {
		t.Fatal("expected cycle lock released")
	}
}

func TestRunOnceSelectsNamedJob(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b"}
	service, _ := newTestService(t, &fakeLock{}, time.Second, a, b)

	if err := service.RunOnce(context.Background(), "b"); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if a.runs != 0 || b.runs != 1 {
		t.Fatalf("expected only b to run, a=%d b=%d", a.runs, b.runs)
	}
	if err := service.RunOnce(context.Background(), "missing"); err == nil {
		t.Fatal("expected unknown job error")
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "fulfillment-sync"}
	service, _ := newTestService(t, &fakeLock{held: true}, time.Second, job)

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("skipped cycle should not fail: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("job ran without the cycle lock")
	}
}

func TestRunOnceLockError(t *testing.T) {
	job := &testJob{name: "fulfillment-sync"}
	service, _ := newTestService(t, &fakeLock{err: errors.New("redis down")}, time.Second, job)

	if err := service.RunOnce(context.Background()); err == nil {
		t.Fatal("expected lock error")
	}
	if job.runs != 0 {
		t.Fatal("job ran without the cycle lock")
	}
}

func TestJobTimeoutIsReported(t *testing.T) {
	slow := &testJob{name: "slow", block: true}
	service, _ := newTestService(t, &fakeLock{}, 20*time.Millisecond, slow)

	err := service.RunOnce(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewServiceRequiresJobs(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	if _, err := NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}, Registry: NewRegistry()}); err == nil {
		t.Fatal("expected empty registry error")
	}
	if _, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry()}); err == nil {
		t.Fatal("expected missing lock error")
	}
}
