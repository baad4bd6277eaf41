package redis

import (
	"context"
	"testing"

	"github.com/wonny/etfscope/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), KRXRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != KRXRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", KRXRateLimit.Limit, remaining)
	}

	if err := limiter.Wait(context.Background(), NaverRateLimit); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestLimitFor(t *testing.T) {
	tests := []struct {
		key    string
		wantOK bool
		limit  int
	}{
		{"krx", true, 2},
		{"naver", true, 10},
		{"yahoo", true, 60},
		{"kis", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := LimitFor(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("LimitFor(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if got.Limit != tt.limit {
				t.Errorf("LimitFor(%q).Limit = %d, want %d", tt.key, got.Limit, tt.limit)
			}
		})
	}
}
