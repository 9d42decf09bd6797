package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_UnsetMarketNotLimited(t *testing.T) {
	l := New()

	for i := 0; i < 100; i++ {
		if !l.Allow("cn") {
			t.Fatal("Allow() = false for a market without a configured rate")
		}
	}
	if err := l.Wait(context.Background(), "cn"); err != nil {
		t.Fatalf("Wait() returned unexpected error: %v", err)
	}
}

func TestLimiter_SetPacesMarket(t *testing.T) {
	l := New()
	l.Set("cn", 1) // 1 req/s, burst 1

	if !l.Allow("cn") {
		t.Fatal("first Allow() = false, want the burst token")
	}
	if l.Allow("cn") {
		t.Fatal("second immediate Allow() = true, want paced")
	}

	// Other markets are independent.
	if !l.Allow("jp") {
		t.Error("Allow() = false for an unrelated market")
	}
}

func TestLimiter_NonPositiveRateUnlimited(t *testing.T) {
	l := New()
	l.Set("cn", 0)

	for i := 0; i < 100; i++ {
		if !l.Allow("cn") {
			t.Fatal("Allow() = false for an unlimited market")
		}
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := New()
	l.Set("cn", 0.001) // one request every ~17 minutes

	if err := l.Wait(context.Background(), "cn"); err != nil {
		t.Fatalf("first Wait() returned unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "cn"); err == nil {
		t.Fatal("Wait() expected context error while paced, got nil")
	}
}
