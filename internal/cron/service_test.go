package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	denied   bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.denied || f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestCronService(t *testing.T, registry *Registry, lock locker) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry := NewRegistry(success, failure)
	service := newTestCronService(t, registry, &fakeLock{})

	service.runCycle(context.Background())

	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	service := newTestCronService(t, NewRegistry(job), &fakeLock{denied: true})

	service.runCycle(context.Background())

	if job.runs != 0 {
		t.Fatalf("expected job not to run, ran %d", job.runs)
	}
}

func TestServiceRunCycleReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	service := newTestCronService(t, NewRegistry(&testJob{name: "only"}), lock)

	service.runCycle(context.Background())

	if lock.acquired {
		t.Fatal("expected lock to be released after cycle")
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	if _, err := NewService(ServiceParams{Registry: NewRegistry(), Lock: &fakeLock{}, Interval: time.Hour}); err == nil {
		t.Fatal("expected error for missing logger")
	}
	if _, err := NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}, Interval: time.Hour}); err == nil {
		t.Fatal("expected error for missing registry")
	}
	if _, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry(), Interval: time.Hour}); err == nil {
		t.Fatal("expected error for missing lock")
	}
	if _, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry(), Lock: &fakeLock{}}); err == nil {
		t.Fatal("expected error for non-positive interval")
	}
}
