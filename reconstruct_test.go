package trailgraph

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func step(nodeID, text string, choices ...Choice) StepRecord {
	return StepRecord{
		ContentRef: &ContentReference{
			TempNodeID: nodeID,
			Content:    &StepContent{Text: text, Choices: choices},
		},
	}
}

func TestReconstruct_TwoNodeTrail(t *testing.T) {
	steps := []StepRecord{
		step("A", "Start", Choice{ID: "c1", Text: "Go", NextNodeID: "B"}),
		step("B", "End"),
	}

	dag, diags, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if len(dag.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(dag.Nodes))
	}
	if dag.StartNodeID != "A" {
		t.Fatalf("unexpected start node: %s", dag.StartNodeID)
	}
	want := []Edge{{FromNodeID: "A", ToNodeID: "B", ChoiceID: "c1"}}
	if !reflect.DeepEqual(dag.Edges, want) {
		t.Fatalf("unexpected edges: %v", dag.Edges)
	}
	if len(dag.ConvergencePoints) != 0 {
		t.Fatalf("expected no convergence points, got %v", dag.ConvergencePoints)
	}
	if dag.Nodes["A"].Content.Text != "Start" || dag.Nodes["B"].Content.Text != "End" {
		t.Fatalf("unexpected node content")
	}
}

func TestReconstruct_EmptyStepsFails(t *testing.T) {
	_, _, err := Reconstruct(nil, "A")
	if !errors.Is(err, ErrEmptySteps) {
		t.Fatalf("expected ErrEmptySteps, got %v", err)
	}
}

func TestReconstruct_BlankStartNodeFails(t *testing.T) {
	steps := []StepRecord{step("A", "Start")}
	for _, start := range []string{"", "   "} {
		_, _, err := Reconstruct(steps, start)
		if !errors.Is(err, ErrMissingStartNode) {
			t.Fatalf("start %q: expected ErrMissingStartNode, got %v", start, err)
		}
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	steps := []StepRecord{
		step("A", "Start",
			Choice{ID: "c1", Text: "Left", NextNodeID: "B"},
			Choice{ID: "c2", Text: "Right", NextNodeID: "C"}),
		step("B", "Left path", Choice{ID: "c3", Text: "On", NextNodeID: "D"}),
		step("C", "Right path", Choice{ID: "c4", Text: "On", NextNodeID: "D"}),
		{
			ContentRef: &ContentReference{
				TempNodeID: "D",
				Content:    &StepContent{Text: "Rejoined", ConvergencePoint: true},
			},
		},
	}

	first, _, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, _, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if !reflect.DeepEqual(first.Nodes, second.Nodes) {
		t.Fatalf("node maps differ")
	}
	if !reflect.DeepEqual(first.Edges, second.Edges) {
		t.Fatalf("edge lists differ")
	}
	if !reflect.DeepEqual(first.ConvergencePoints, second.ConvergencePoints) {
		t.Fatalf("convergence points differ")
	}
}

func TestReconstruct_SkipsMalformedStepAndContinues(t *testing.T) {
	steps := []StepRecord{
		step("A", "Start", Choice{ID: "c1", Text: "Go", NextNodeID: "B"}),
		{StepOrder: 2}, // no content reference at all
		step("B", "End"),
	}

	dag, diags, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(dag.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(dag.Nodes))
	}
	if len(diags) != 1 || diags[0].Code != DiagMissingContentRef {
		t.Fatalf("expected one missing-content-reference diagnostic, got %v", diags)
	}
}

func TestReconstruct_SkipsStepWithoutNodeIDOrContent(t *testing.T) {
	steps := []StepRecord{
		step("A", "Start"),
		{ContentRef: &ContentReference{Content: &StepContent{Text: "no id"}}},
		{ContentRef: &ContentReference{TempNodeID: "C"}},
	}

	dag, diags, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(dag.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(dag.Nodes))
	}
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	if diags[0].Code != DiagMissingNodeID || diags[1].Code != DiagMissingContent {
		t.Fatalf("unexpected diagnostic codes: %v, %v", diags[0].Code, diags[1].Code)
	}
}

func TestReconstruct_InvalidChoicesProduceNoEdge(t *testing.T) {
	steps := []StepRecord{
		step("A", "Start",
			Choice{ID: "c1", Text: "Valid", NextNodeID: "B"},
			Choice{ID: "c2", Text: "No target"},
			Choice{Text: "No id", NextNodeID: "B"}),
		step("B", "End"),
	}

	dag, diags, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(dag.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(dag.Edges))
	}
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	for _, d := range diags {
		if d.Code != DiagInvalidChoice {
			t.Fatalf("expected invalid-choice diagnostics, got %v", d.Code)
		}
	}
	// The node keeps all its choices even though only one became an edge.
	if got := len(dag.Nodes["A"].Content.Choices); got != 3 {
		t.Fatalf("expected node A to keep 3 choices, got %d", got)
	}
}

func TestReconstruct_DuplicateNodeIDLastWriteWins(t *testing.T) {
	steps := []StepRecord{
		step("A", "first version"),
		step("A", "second version"),
	}

	dag, diags, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(dag.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(dag.Nodes))
	}
	if dag.Nodes["A"].Content.Text != "second version" {
		t.Fatalf("expected later step to win, got %q", dag.Nodes["A"].Content.Text)
	}
	if len(diags) != 1 || diags[0].Code != DiagDuplicateNode {
		t.Fatalf("expected one duplicate-node diagnostic, got %v", diags)
	}
}

func TestReconstruct_ConvergenceFromEitherFlag(t *testing.T) {
	steps := []StepRecord{
		{
			ContentRef: &ContentReference{
				TempNodeID: "A",
				Content:    &StepContent{Text: "content flag", ConvergencePoint: true},
			},
		},
		{
			ContentRef: &ContentReference{
				TempNodeID: "B",
				Content:    &StepContent{Text: "metadata flag"},
			},
			Metadata: &StepMetadata{ConvergencePoint: true},
		},
		{
			ContentRef: &ContentReference{
				TempNodeID: "C",
				Content:    &StepContent{Text: "both flags", ConvergencePoint: true},
			},
			Metadata: &StepMetadata{ConvergencePoint: true},
		},
		step("D", "neither flag"),
	}

	dag, _, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(dag.ConvergencePoints, want) {
		t.Fatalf("unexpected convergence points: %v", dag.ConvergencePoints)
	}
}

func TestReconstruct_ConvergencePointsDeduplicated(t *testing.T) {
	// The same node id flagged by two steps must appear once.
	steps := []StepRecord{
		{
			ContentRef: &ContentReference{
				TempNodeID: "A",
				Content:    &StepContent{Text: "v1", ConvergencePoint: true},
			},
		},
		{
			ContentRef: &ContentReference{
				TempNodeID: "A",
				Content:    &StepContent{Text: "v2", ConvergencePoint: true},
			},
		},
	}

	dag, _, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !reflect.DeepEqual(dag.ConvergencePoints, []string{"A"}) {
		t.Fatalf("expected deduplicated convergence points, got %v", dag.ConvergencePoints)
	}
}

func TestReconstruct_StartNodeAbsentIsDiagnosticNotError(t *testing.T) {
	steps := []StepRecord{step("A", "only node")}

	dag, diags, err := Reconstruct(steps, "Z")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if dag.StartNodeID != "Z" {
		t.Fatalf("start node id must be carried through, got %s", dag.StartNodeID)
	}
	if len(diags) != 1 || diags[0].Code != DiagStartNodeMissing {
		t.Fatalf("expected a start-node-missing diagnostic, got %v", diags)
	}
}

func TestReconstruct_EdgeCountMatchesValidChoices(t *testing.T) {
	steps := []StepRecord{
		step("A", "a",
			Choice{ID: "c1", NextNodeID: "B"},
			Choice{ID: "c2", NextNodeID: "C"},
			Choice{ID: "c3"}),
		step("B", "b", Choice{ID: "c4", NextNodeID: "C"}),
		step("C", "c"),
	}

	dag, _, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(dag.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(dag.Edges))
	}
	// Edge order follows step order, then choice order within each step.
	want := []Edge{
		{FromNodeID: "A", ToNodeID: "B", ChoiceID: "c1"},
		{FromNodeID: "A", ToNodeID: "C", ChoiceID: "c2"},
		{FromNodeID: "B", ToNodeID: "C", ChoiceID: "c4"},
	}
	if !reflect.DeepEqual(dag.Edges, want) {
		t.Fatalf("unexpected edge order: %v", dag.Edges)
	}
}

func TestReconstruct_GenerationMetadataMerged(t *testing.T) {
	edu := json.RawMessage(`{"subject":"astronomy","gradeLevel":"5"}`)
	steps := []StepRecord{
		{
			ContentRef: &ContentReference{
				TempNodeID: "A",
				Content:    &StepContent{Text: "lesson", Educational: edu},
			},
			Metadata: &StepMetadata{
				Timestamp:     "2026-08-01T12:00:00Z",
				LLMModel:      "gen-3",
				IncomingEdges: 1,
				OutgoingEdges: 2,
			},
		},
		step("B", "no metadata"),
	}

	dag, _, err := Reconstruct(steps, "A")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	a := dag.Nodes["A"]
	if a.Generation == nil {
		t.Fatalf("expected generation metadata on node A")
	}
	if a.Generation.Timestamp != "2026-08-01T12:00:00Z" || a.Generation.LLMModel != "gen-3" {
		t.Fatalf("step metadata not merged: %+v", a.Generation)
	}
	if string(a.Generation.Educational) != string(edu) {
		t.Fatalf("educational payload not carried through")
	}
	if a.IncomingEdges != 1 || a.OutgoingEdges != 2 {
		t.Fatalf("edge counts not carried through: %d/%d", a.IncomingEdges, a.OutgoingEdges)
	}

	if dag.Nodes["B"].Generation != nil {
		t.Fatalf("node B must not carry generation metadata")
	}
}
