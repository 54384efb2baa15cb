package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type stubTool struct {
	name   string
	schema string
	output Output
	err    error
	calls  int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Schema() json.RawMessage {
	if s.schema != "" {
		return json.RawMessage(s.schema)
	}
	return json.RawMessage(`{"type":"object"}`)
}
func (s *stubTool) Phase() Phase           { return PhaseAudienceResearch }
func (s *stubTool) ResultKind() ResultKind { return KindNone }
func (s *stubTool) Execute(_ context.Context, _ json.RawMessage) (Output, error) {
	s.calls++
	return s.output, s.err
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := r.Register(&stubTool{name: "alpha"}); !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("duplicate register = %v, want ErrDuplicateTool", err)
	}
	if err := r.Register(&stubTool{name: "  "}); !errors.Is(err, ErrEmptyToolName) {
		t.Errorf("blank name = %v, want ErrEmptyToolName", err)
	}
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	want := &stubTool{name: "alpha"}
	if err := r.Register(want); err != nil {
		t.Fatal(err)
	}

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != Tool(want) {
		t.Error("Get returned a different tool")
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("missing tool = %v, want ErrToolNotFound", err)
	}
}

func TestRegistry_NamesAndDefinitionsSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(&stubTool{name: name}); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"alpha", "bravo", "charlie"}
	names := r.Names()
	defs := r.Definitions()
	if len(names) != 3 || len(defs) != 3 {
		t.Fatalf("names=%d defs=%d, want 3 each", len(names), len(defs))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
		if defs[i].Name != want[i] {
			t.Errorf("defs[%d].Name = %q, want %q", i, defs[i].Name, want[i])
		}
	}
}

func TestRegistry_ExecuteValidatesArgs(t *testing.T) {
	t.Parallel()

	schema := `{
		"type": "object",
		"properties": {"city": {"type": "string"}},
		"required": ["city"],
		"additionalProperties": false
	}`
	stub := &stubTool{name: "lookup", schema: schema, output: Output{Content: "ok"}}
	r := NewRegistry()
	if err := r.Register(stub); err != nil {
		t.Fatal(err)
	}

	out, err := r.Execute(context.Background(), "lookup", json.RawMessage(`{"city":"Chicago"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Content != "ok" {
		t.Errorf("content = %q", out.Content)
	}

	cases := map[string]string{
		"missing required": `{}`,
		"wrong type":       `{"city": 7}`,
		"extra property":   `{"city":"Chicago","zip":"60601"}`,
	}
	for name, args := range cases {
		_, err := r.Execute(context.Background(), "lookup", json.RawMessage(args))
		if !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("%s: err = %v, want ErrInvalidArgs", name, err)
		}
	}
	if stub.calls != 1 {
		t.Errorf("tool ran %d times, want 1 (invalid args must not execute)", stub.calls)
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.Execute(context.Background(), "ghost", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("err = %v, want ErrToolNotFound", err)
	}
}
