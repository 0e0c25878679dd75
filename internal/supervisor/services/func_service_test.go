package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestFuncServiceInterface(t *testing.T) {
	var _ suture.Service = (*FuncService)(nil)
}

func TestFuncServiceServeReturnsFnResult(t *testing.T) {
	wantErr := errors.New("boom")
	svc := NewFuncService("test-func", func(ctx context.Context) error {
		return wantErr
	})

	if err := svc.Serve(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Serve() = %v, want %v", err, wantErr)
	}
}

func TestFuncServiceServeRespectsCancellation(t *testing.T) {
	called := make(chan struct{})
	svc := NewFuncService("test-func", func(ctx context.Context) error {
		close(called)
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("function was never invoked")
	}

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestFuncServiceString(t *testing.T) {
	svc := NewFuncService("asr-scheduler", func(ctx context.Context) error { return nil })
	if svc.String() != "asr-scheduler" {
		t.Fatalf("String() = %q, want %q", svc.String(), "asr-scheduler")
	}
}

func TestFuncServiceWithSupervisor(t *testing.T) {
	ran := make(chan struct{})
	svc := NewFuncService("test-func", func(ctx context.Context) error {
		close(ran)
		<-ctx.Done()
		return ctx.Err()
	})

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := sup.ServeBackground(ctx)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("function was never invoked under supervision")
	}

	cancel()
	<-errCh
}
