package identity

import (
	"context"
	"testing"
)

func TestOwnerFrom(t *testing.T) {
	if _, ok := OwnerFrom(context.Background()); ok {
		t.Fatal("background context must have no owner")
	}
	if _, ok := OwnerFrom(WithOwner(context.Background(), "")); ok {
		t.Fatal("empty owner id must count as no owner")
	}
	id, ok := OwnerFrom(WithOwner(context.Background(), "u1"))
	if !ok || id != "u1" {
		t.Fatalf("OwnerFrom=%q,%v want u1,true", id, ok)
	}
}
