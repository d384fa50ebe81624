// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeBackend struct{ endpoint string }

func newFake(_ context.Context, params map[string]string) (*fakeBackend, error) {
	if params["endpoint"] == "" {
		return nil, errors.New("endpoint is required")
	}
	return &fakeBackend{endpoint: params["endpoint"]}, nil
}

func TestRegistry_RegisterAndNew(t *testing.T) {
	r := NewRegistry[*fakeBackend]("search")
	r.Register("exa", newFake)

	b, err := r.New(context.Background(), "exa", map[string]string{"endpoint": "https://api.exa.ai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.endpoint != "https://api.exa.ai" {
		t.Errorf("endpoint = %q", b.endpoint)
	}
	if !r.Has("exa") || r.Has("brave") {
		t.Errorf("Has() reported wrong membership")
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry[*fakeBackend]("cache")
	r.Register("memory", newFake)

	_, err := r.New(context.Background(), "redis", nil)
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	want := `unknown provider: cache "redis" (available: [memory])`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestRegistry_FactoryErrorIsWrapped(t *testing.T) {
	r := NewRegistry[*fakeBackend]("archive")
	r.Register("s3", newFake)

	_, err := r.New(context.Background(), "s3", map[string]string{})
	if err == nil {
		t.Fatal("expected factory error")
	}
	if !strings.HasPrefix(err.Error(), `archive "s3": `) {
		t.Errorf("error = %q, want archive prefix", err.Error())
	}
}

func TestRegistry_Available(t *testing.T) {
	r := NewRegistry[*fakeBackend]("search")
	r.Register("tavily", newFake)
	r.Register("brave", newFake)

	avail := r.Available()
	if len(avail) != 2 || avail[0] != "brave" || avail[1] != "tavily" {
		t.Errorf("Available() = %v, want [brave tavily]", avail)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry[*fakeBackend]("search")
	r.Register("dup", newFake)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register("dup", newFake)
}
