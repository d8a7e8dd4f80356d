package database

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	if err == nil {
		t.Fatal("NewRedisClient() error = nil, want parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse Redis URL") {
		t.Errorf("NewRedisClient() error = %v", err)
	}
}

func TestRedisClient_Health(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	if err := client.Health(ctx); err != nil {
		t.Errorf("Health() error = %v, want nil", err)
	}

	mr.Close()
	if err := client.Health(ctx); err == nil {
		t.Error("Health() error = nil after server stopped")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), "redis://"+addr+"/0")
	if err == nil || !strings.Contains(err.Error(), "failed to connect to Redis") {
		t.Errorf("NewRedisClient() error = %v, want connect error", err)
	}
}
