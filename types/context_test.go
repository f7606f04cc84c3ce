package types

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	if _, ok := RequestID(context.Background()); ok {
		t.Fatal("RequestID on empty context must report absent")
	}

	ctx := WithRequestID(context.Background(), "req-1")
	if got, ok := RequestID(ctx); !ok || got != "req-1" {
		t.Fatalf("RequestID mismatch: %v %v", got, ok)
	}

	if _, ok := RequestID(WithRequestID(context.Background(), "")); ok {
		t.Fatal("empty request ID must report absent")
	}
}
