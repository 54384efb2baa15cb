package event

import (
	"context"
	"errors"
	"testing"

	"github.com/hivelabs/campaignd/internal/agent"
	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/tool"
)

func project(t *testing.T, loopEvents ...agent.StreamEvent) []Event {
	t.Helper()

	in := make(chan agent.StreamEvent, len(loopEvents))
	for _, ev := range loopEvents {
		in <- ev
	}
	close(in)

	var out []Event
	for ev := range NewProjector(nil).Project(context.Background(), in) {
		out = append(out, ev)
	}
	return out
}

func loopDone() agent.StreamEvent {
	return agent.StreamEvent{Type: agent.StreamEventDone, Final: &agent.Response{}}
}

func toolStart(id string, phase tool.Phase, kind tool.ResultKind) agent.StreamEvent {
	return agent.StreamEvent{
		Type:     agent.StreamEventToolStart,
		ToolCall: &agent.ToolCallRecord{ID: id, Phase: phase, Kind: kind},
	}
}

func toolEnd(id string, phase tool.Phase, kind tool.ResultKind, out tool.Output) agent.StreamEvent {
	return agent.StreamEvent{
		Type:     agent.StreamEventToolEnd,
		ToolCall: &agent.ToolCallRecord{ID: id, Phase: phase, Kind: kind, Output: out},
	}
}

// The first event is always agent_step{analyzing, running}, even for an
// immediately failing loop.
func TestProject_FirstEventAnalyzingRunning(t *testing.T) {
	t.Parallel()

	events := project(t, agent.StreamEvent{Type: agent.StreamEventError, Err: errors.New("boom")})
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	first := events[0]
	if first.Type != TypeAgentStep || first.Node != NodeAnalyzing || first.Status != StatusRunning {
		t.Errorf("first event = %+v, want agent_step{analyzing,running}", first)
	}
}

// A text-only request: analyzing running, tokens in order, analyzing done, done.
func TestProject_TextOnly(t *testing.T) {
	t.Parallel()

	events := project(t,
		agent.StreamEvent{Type: agent.StreamEventText, Content: "Hello "},
		agent.StreamEvent{Type: agent.StreamEventText, Content: "there"},
		loopDone(),
	)

	want := []Event{
		AgentStep(NodeAnalyzing, StatusRunning),
		Token("Hello "),
		Token("there"),
		AgentStep(NodeAnalyzing, StatusDone),
		Done(),
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

// A full audience-research turn: the structured result follows the
// phase-done event, never precedes it.
func TestProject_AudienceResearchTurn(t *testing.T) {
	t.Parallel()

	segment := map[string]any{"count": 42, "segment_id": "seg_ab12cd34"}
	events := project(t,
		toolStart("1", tool.PhaseAudienceResearch, tool.KindAudience),
		toolEnd("1", tool.PhaseAudienceResearch, tool.KindAudience, tool.Output{
			Content: `{"count":42}`,
			Data:    segment,
		}),
		agent.StreamEvent{Type: agent.StreamEventText, Content: "Found 42 fans."},
		loopDone(),
	)

	wantTypes := []Type{
		TypeAgentStep, // analyzing running
		TypeAgentStep, // audience_research running
		TypeAgentStep, // audience_research done
		TypeAudienceResult,
		TypeToken,
		TypeAgentStep, // analyzing done
		TypeDone,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, typ := range wantTypes {
		if events[i].Type != typ {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, typ)
		}
	}
	if events[1].Node != NodeAudienceResearch || events[1].Status != StatusRunning {
		t.Errorf("event 1 = %+v, want audience_research running", events[1])
	}
	if events[2].Node != NodeAudienceResearch || events[2].Status != StatusDone {
		t.Errorf("event 2 = %+v, want audience_research done", events[2])
	}
	if events[3].Data == nil {
		t.Error("expected audience_result to carry data")
	}
}

// Result kinds map to their structured event types.
func TestProject_StructuredEventKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind  tool.ResultKind
		phase tool.Phase
		want  Type
	}{
		{tool.KindAudience, tool.PhaseAudienceResearch, TypeAudienceResult},
		{tool.KindDraft, tool.PhaseCopyWriting, TypeCampaignDraft},
		{tool.KindScheduled, tool.PhaseScheduling, TypeScheduled},
	}
	for _, c := range cases {
		events := project(t,
			toolStart("1", c.phase, c.kind),
			toolEnd("1", c.phase, c.kind, tool.Output{Content: "{}", Data: map[string]any{"k": "v"}}),
			loopDone(),
		)
		var found bool
		for _, ev := range events {
			if ev.Type == c.want {
				found = true
			}
		}
		if !found {
			t.Errorf("kind %s: expected a %s event", c.kind, c.want)
		}
	}
}

// Tools without a declared result kind get phase events only.
func TestProject_KindNoneNoStructuredEvent(t *testing.T) {
	t.Parallel()

	events := project(t,
		toolStart("1", tool.PhaseScheduling, tool.KindNone),
		toolEnd("1", tool.PhaseScheduling, tool.KindNone, tool.Output{Content: "ok", Data: map[string]any{"x": 1}}),
		loopDone(),
	)
	for _, ev := range events {
		switch ev.Type {
		case TypeAudienceResult, TypeCampaignDraft, TypeScheduled:
			t.Errorf("unexpected structured event %s", ev.Type)
		}
	}
}

// Malformed tool output (no structured data) suppresses the structured
// event but still fires phase-done.
func TestProject_MalformedOutputOmitsStructuredEvent(t *testing.T) {
	t.Parallel()

	events := project(t,
		toolStart("1", tool.PhaseCopyWriting, tool.KindDraft),
		toolEnd("1", tool.PhaseCopyWriting, tool.KindDraft, tool.Output{Content: "not json"}),
		loopDone(),
	)

	var gotPhaseDone, gotDraft bool
	for _, ev := range events {
		if ev.Type == TypeAgentStep && ev.Node == NodeCopyWriting && ev.Status == StatusDone {
			gotPhaseDone = true
		}
		if ev.Type == TypeCampaignDraft {
			gotDraft = true
		}
	}
	if !gotPhaseDone {
		t.Error("expected copy_writing done event")
	}
	if gotDraft {
		t.Error("expected no campaign_draft event for malformed output")
	}
}

// A failed tool execution never produces a structured event.
func TestProject_ToolErrorOmitsStructuredEvent(t *testing.T) {
	t.Parallel()

	events := project(t,
		toolStart("1", tool.PhaseAudienceResearch, tool.KindAudience),
		toolEnd("1", tool.PhaseAudienceResearch, tool.KindAudience, tool.Output{
			Content: "backend unavailable",
			Data:    map[string]any{"stale": true},
			IsError: true,
		}),
		loopDone(),
	)
	for _, ev := range events {
		if ev.Type == TypeAudienceResult {
			t.Error("expected no audience_result for a failed execution")
		}
	}
}

// An unrecoverable loop failure yields error then done, with nothing after.
func TestProject_ErrorThenDone(t *testing.T) {
	t.Parallel()

	events := project(t,
		agent.StreamEvent{Type: agent.StreamEventText, Content: "thinking"},
		agent.StreamEvent{Type: agent.StreamEventError, Err: errors.New("provider unreachable")},
		// Anything after the terminal event must be ignored.
		agent.StreamEvent{Type: agent.StreamEventText, Content: "stray"},
	)

	n := len(events)
	if n < 2 {
		t.Fatalf("expected at least error+done, got %+v", events)
	}
	if events[n-1].Type != TypeDone {
		t.Errorf("last event = %s, want done", events[n-1].Type)
	}
	if events[n-2].Type != TypeError {
		t.Errorf("second-to-last event = %s, want error", events[n-2].Type)
	}
	if events[n-2].Message == "" {
		t.Error("expected error message")
	}
	for _, ev := range events {
		if ev.Type == TypeToken && ev.Content == "stray" {
			t.Error("expected no events after the terminal error")
		}
	}
}

// Exactly one done event per request, always last, across shapes.
func TestProject_ExactlyOneDone(t *testing.T) {
	t.Parallel()

	streams := map[string][]agent.StreamEvent{
		"success": {
			agent.StreamEvent{Type: agent.StreamEventText, Content: "hi"},
			loopDone(),
		},
		"failure": {
			agent.StreamEvent{Type: agent.StreamEventError, Err: errors.New("x")},
		},
		"closed without terminal": {
			agent.StreamEvent{Type: agent.StreamEventText, Content: "hi"},
		},
	}
	for name, stream := range streams {
		events := project(t, stream...)
		var dones int
		for _, ev := range events {
			if ev.Type == TypeDone {
				dones++
			}
		}
		if dones != 1 {
			t.Errorf("%s: got %d done events, want 1", name, dones)
		}
		if events[len(events)-1].Type != TypeDone {
			t.Errorf("%s: last event = %s, want done", name, events[len(events)-1].Type)
		}
	}
}

// Every running step has exactly one later done for the same node.
func TestProject_PairedSteps(t *testing.T) {
	t.Parallel()

	events := project(t,
		toolStart("1", tool.PhaseAudienceResearch, tool.KindAudience),
		toolEnd("1", tool.PhaseAudienceResearch, tool.KindAudience, tool.Output{Content: "{}", Data: map[string]any{}}),
		toolStart("2", tool.PhaseCopyWriting, tool.KindDraft),
		toolEnd("2", tool.PhaseCopyWriting, tool.KindDraft, tool.Output{Content: "{}", Data: map[string]any{}}),
		toolStart("3", tool.PhaseScheduling, tool.KindScheduled),
		toolEnd("3", tool.PhaseScheduling, tool.KindScheduled, tool.Output{Content: "{}", Data: map[string]any{}}),
		agent.StreamEvent{Type: agent.StreamEventText, Content: "scheduled!"},
		loopDone(),
	)

	open := map[Node]int{}
	for _, ev := range events {
		if ev.Type != TypeAgentStep {
			continue
		}
		switch ev.Status {
		case StatusRunning:
			open[ev.Node]++
		case StatusDone:
			open[ev.Node]--
			if open[ev.Node] < 0 {
				t.Errorf("node %s: done before running", ev.Node)
			}
		}
	}
	for node, n := range open {
		if n != 0 {
			t.Errorf("node %s: %d unmatched running steps", node, n)
		}
	}
}

// A cancelled request stops projection without emitting terminal events.
func TestProject_CancelledRequest(t *testing.T) {
	t.Parallel()

	in := make(chan agent.StreamEvent, 2)
	in <- agent.StreamEvent{Type: agent.StreamEventText, Content: "partial"}
	in <- agent.StreamEvent{Type: agent.StreamEventError, Err: context.Canceled}
	close(in)

	var events []Event
	for ev := range NewProjector(nil).Project(context.Background(), in) {
		events = append(events, ev)
	}
	for _, ev := range events {
		if ev.Type == TypeError || ev.Type == TypeDone {
			t.Errorf("expected no terminal events after cancellation, got %s", ev.Type)
		}
	}
}

// Usage reports feed the metrics hook and never reach the client stream.
func TestProject_UsageHook(t *testing.T) {
	t.Parallel()

	in := make(chan agent.StreamEvent, 2)
	in <- agent.StreamEvent{Type: agent.StreamEventUsage, Usage: &provider.TokenUsage{TotalTokens: 99}}
	in <- loopDone()
	close(in)

	p := NewProjector(nil)
	var reported int
	p.OnUsage = func(u provider.TokenUsage) { reported = u.TotalTokens }

	for ev := range p.Project(context.Background(), in) {
		if ev.Type == TypeToken {
			t.Error("usage must not surface as a token event")
		}
	}
	if reported != 99 {
		t.Errorf("reported usage = %d, want 99", reported)
	}
}
