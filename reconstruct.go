package trailgraph

import (
	"fmt"
	"strings"
)

// DiagnosticCode classifies a data-quality finding made during reconstruction.
type DiagnosticCode string

const (
	DiagMissingContentRef DiagnosticCode = "missing_content_reference"
	DiagMissingNodeID     DiagnosticCode = "missing_node_id"
	DiagMissingContent    DiagnosticCode = "missing_content"
	DiagInvalidChoice     DiagnosticCode = "invalid_choice"
	DiagDuplicateNode     DiagnosticCode = "duplicate_node_id"
	DiagStartNodeMissing  DiagnosticCode = "start_node_missing"
)

// Diagnostic records one skipped record/choice or structural anomaly observed
// while rebuilding a graph. Diagnostics never abort reconstruction; they are
// returned alongside the DAG so the caller decides how to surface them.
type Diagnostic struct {
	Code      DiagnosticCode `json:"code"`
	StepOrder int            `json:"stepOrder,omitempty"`
	NodeID    string         `json:"nodeId,omitempty"`
	ChoiceID  string         `json:"choiceId,omitempty"`
	Message   string         `json:"message"`
}

// Reconstruct rebuilds a DAG from the flat step sequence in a single linear
// pass over steps and their choices.
//
// The only errors are the two precondition failures: an empty step sequence
// (ErrEmptySteps) and a blank start node id (ErrMissingStartNode). Everything
// else the generation service can get wrong — missing content references,
// missing node ids, choices without a target — is skipped and reported as a
// Diagnostic, and the best-effort graph from the remaining records is still
// returned. Upstream content is LLM-generated and imperfect input is expected.
//
// Duplicate node ids take last-write-wins in the node map and are surfaced
// with DiagDuplicateNode. Convergence points are deduplicated, first-seen
// order.
func Reconstruct(steps []StepRecord, startNodeID string) (*DAG, []Diagnostic, error) {
	if len(steps) == 0 {
		return nil, nil, ErrEmptySteps
	}
	if strings.TrimSpace(startNodeID) == "" {
		return nil, nil, ErrMissingStartNode
	}

	d := &DAG{
		Nodes:             make(map[string]*ContentNode, len(steps)),
		Edges:             []Edge{},
		StartNodeID:       startNodeID,
		ConvergencePoints: []string{},
	}
	var diags []Diagnostic
	converged := make(map[string]bool)

	for _, step := range steps {
		ref := step.ContentRef
		if ref == nil {
			diags = append(diags, Diagnostic{
				Code:      DiagMissingContentRef,
				StepOrder: step.StepOrder,
				Message:   fmt.Sprintf("step %d has no content reference, skipped", step.StepOrder),
			})
			continue
		}
		if ref.TempNodeID == "" {
			diags = append(diags, Diagnostic{
				Code:      DiagMissingNodeID,
				StepOrder: step.StepOrder,
				Message:   fmt.Sprintf("step %d has no node id, skipped", step.StepOrder),
			})
			continue
		}
		content := ref.Content
		if content == nil {
			diags = append(diags, Diagnostic{
				Code:      DiagMissingContent,
				StepOrder: step.StepOrder,
				NodeID:    ref.TempNodeID,
				Message:   fmt.Sprintf("step %d (node %s) has no content, skipped", step.StepOrder, ref.TempNodeID),
			})
			continue
		}

		nodeID := ref.TempNodeID
		if _, exists := d.Nodes[nodeID]; exists {
			diags = append(diags, Diagnostic{
				Code:      DiagDuplicateNode,
				StepOrder: step.StepOrder,
				NodeID:    nodeID,
				Message:   fmt.Sprintf("step %d reuses node id %s, overwriting earlier node", step.StepOrder, nodeID),
			})
		}

		d.Nodes[nodeID] = buildNode(nodeID, content, step.Metadata)

		for _, choice := range content.Choices {
			if choice.ID == "" || choice.NextNodeID == "" {
				diags = append(diags, Diagnostic{
					Code:      DiagInvalidChoice,
					StepOrder: step.StepOrder,
					NodeID:    nodeID,
					ChoiceID:  choice.ID,
					Message:   fmt.Sprintf("node %s has a choice without id or target, no edge created", nodeID),
				})
				continue
			}
			d.Edges = append(d.Edges, Edge{
				FromNodeID: nodeID,
				ToNodeID:   choice.NextNodeID,
				ChoiceID:   choice.ID,
			})
		}

		metaFlag := step.Metadata != nil && step.Metadata.ConvergencePoint
		if (metaFlag || content.ConvergencePoint) && !converged[nodeID] {
			converged[nodeID] = true
			d.ConvergencePoints = append(d.ConvergencePoints, nodeID)
		}
	}

	if _, ok := d.Nodes[startNodeID]; !ok {
		diags = append(diags, Diagnostic{
			Code:    DiagStartNodeMissing,
			NodeID:  startNodeID,
			Message: fmt.Sprintf("start node %s not found among reconstructed nodes", startNodeID),
		})
	}

	return d, diags, nil
}

// buildNode assembles a ContentNode from a step's content and optional metadata.
// Generation metadata is attached only when the content carries an educational
// payload; timestamp and model are merged in from the step metadata.
func buildNode(nodeID string, content *StepContent, meta *StepMetadata) *ContentNode {
	node := &ContentNode{
		ID: nodeID,
		Content: NodeContent{
			Text:    content.Text,
			Choices: content.Choices,
		},
	}
	if node.Content.Choices == nil {
		node.Content.Choices = []Choice{}
	}
	if meta != nil {
		node.IncomingEdges = meta.IncomingEdges
		node.OutgoingEdges = meta.OutgoingEdges
	}
	if len(content.Educational) > 0 {
		node.Generation = &GenerationMetadata{Educational: content.Educational}
		if meta != nil {
			node.Generation.Timestamp = meta.Timestamp
			node.Generation.LLMModel = meta.LLMModel
		}
	}
	return node
}
