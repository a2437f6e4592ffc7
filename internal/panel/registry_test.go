package panel

import (
	"testing"
)

func TestRegistryNormalisesInput(t *testing.T) {
	registry := NewRegistry([]string{" ops ", "admin", "", "admin"})
	got := registry.List()
	if len(got) != 2 || got[0] != "admin" || got[1] != "ops" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestRegistryIsRegistered(t *testing.T) {
	registry := NewRegistry([]string{"admin"})
	if !registry.IsRegistered("admin") {
		t.Fatal("expected admin to be registered")
	}
	if registry.IsRegistered("ops") {
		t.Fatal("did not expect ops to be registered")
	}
}

func TestRegistryDefault(t *testing.T) {
	if id, ok := NewRegistry([]string{"admin"}).Default(); !ok || id != "admin" {
		t.Fatalf("expected sole panel default, got %q ok=%v", id, ok)
	}
	if _, ok := NewRegistry([]string{"admin", "ops"}).Default(); ok {
		t.Fatal("expected no default with two panels")
	}
	if _, ok := NewRegistry(nil).Default(); ok {
		t.Fatal("expected no default with zero panels")
	}
}
