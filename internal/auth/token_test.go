package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenConsume(t *testing.T) {
	store := NewTokenStore(testDB(t))
	ctx := context.Background()

	token, err := store.Create(ctx, " Ada@Example.com ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}

	email, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if email != "ada@example.com" {
		t.Errorf("email = %q, want normalized address", email)
	}
}

func TestTokenSingleUse(t *testing.T) {
	store := NewTokenStore(testDB(t))
	ctx := context.Background()

	token, err := store.Create(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Consume(ctx, token); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if _, err := store.Consume(ctx, token); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("second consume err = %v, want ErrTokenUsed", err)
	}
}

func TestTokenInvalid(t *testing.T) {
	store := NewTokenStore(testDB(t))

	if _, err := store.Consume(context.Background(), "missing"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenExpired(t *testing.T) {
	store := NewTokenStore(testDB(t))
	ctx := context.Background()

	token, err := store.Create(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(tokenExpiry + time.Minute) }
	if _, err := store.Consume(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := store.Consume(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("after cleanup err = %v, want ErrTokenInvalid", err)
	}
}
