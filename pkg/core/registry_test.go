package core

import (
	"context"
	"testing"
)

type stubSource struct {
	typ    string
	config *stubConfig
}

type stubConfig struct {
	Path string `toml:"path"`
}

func (s *stubSource) Type() string    { return s.typ }
func (s *stubSource) ConfigType() any { return &stubConfig{} }
func (s *stubSource) Factory(config any) (Source, error) {
	cfg, _ := config.(*stubConfig)
	return &stubSource{typ: s.typ, config: cfg}, nil
}
func (s *stubSource) Fetch(ctx context.Context) (Dataset, error) {
	return Dataset{Origin: s.typ}, nil
}

func TestRegistryCreateSource(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", &stubSource{typ: "stub"})

	src, err := r.CreateSource("stub", &stubConfig{Path: "data.json"})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	stub := src.(*stubSource)
	if stub.config == nil || stub.config.Path != "data.json" {
		t.Errorf("config not passed to factory: %+v", stub.config)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()
	r.Register("b", &stubSource{typ: "b"})
	r.Register("a", &stubSource{typ: "a"})

	if _, err := r.CreateSource("missing", nil); err == nil {
		t.Fatal("expected error for unknown type")
	}
	types := r.Types()
	if len(types) != 2 || types[0] != "a" || types[1] != "b" {
		t.Errorf("expected sorted types [a b], got %v", types)
	}
}
