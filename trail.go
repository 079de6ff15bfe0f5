package trailgraph

import "encoding/json"

// Trail is the persisted artifact: a flat, ordered sequence of generated steps
// plus the externally supplied start node. The graph is always derived from it,
// never stored.
type Trail struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	StartNodeID string       `json:"startNodeId"`
	Steps       []StepRecord `json:"steps"`
}

// StepRecord is one normalized unit of generated content as persisted by the
// backend. StepOrder is informational only; reconstruction does not rely on it
// for graph shape.
type StepRecord struct {
	StepOrder  int               `json:"stepOrder"`
	ContentRef *ContentReference `json:"contentReference"`
	Metadata   *StepMetadata     `json:"metadata,omitempty"`
}

// ContentReference carries the node identifier assigned during generation and
// the content body it points at.
type ContentReference struct {
	TempNodeID string       `json:"tempNodeId"`
	Content    *StepContent `json:"content"`
}

// StepContent is the generated body of a single node.
// Educational is an opaque generation-metadata payload produced upstream; it is
// carried through untouched.
type StepContent struct {
	Text             string          `json:"text"`
	Choices          []Choice        `json:"choices"`
	Educational      json.RawMessage `json:"educationalContent,omitempty"`
	ConvergencePoint bool            `json:"convergencePoint,omitempty"`
}

// Choice is one reader option belonging to exactly one node. NextNodeID may be
// missing or empty in generated content; such choices produce no edge.
type Choice struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	NextNodeID string `json:"nextNodeId,omitempty"`
}

// StepMetadata is the optional per-step bag written by the generation service.
// Edge counts are informational and are never recomputed from the edge list.
type StepMetadata struct {
	NodeID           string `json:"nodeId,omitempty"`
	ConvergencePoint bool   `json:"convergencePoint,omitempty"`
	IncomingEdges    int    `json:"incomingEdges,omitempty"`
	OutgoingEdges    int    `json:"outgoingEdges,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	LLMModel         string `json:"llmModel,omitempty"`
}

// DAG is the reconstructed graph: one ContentNode per valid step, one Edge per
// valid choice, a designated start node, and the convergence-point node ids in
// first-seen order with no duplicates.
type DAG struct {
	Nodes             map[string]*ContentNode `json:"nodes"`
	Edges             []Edge                  `json:"edges"`
	StartNodeID       string                  `json:"startNodeId"`
	ConvergencePoints []string                `json:"convergencePoints"`
}

// ContentNode is a vertex in the reconstructed graph.
type ContentNode struct {
	ID            string              `json:"id"`
	Content       NodeContent         `json:"content"`
	IncomingEdges int                 `json:"incomingEdges"`
	OutgoingEdges int                 `json:"outgoingEdges"`
	Generation    *GenerationMetadata `json:"generationMetadata,omitempty"`
}

// NodeContent is the readable body of a node.
type NodeContent struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// GenerationMetadata is attached to a node only when the source content carried
// an educational payload; Timestamp and LLMModel are merged in from the step
// metadata when present.
type GenerationMetadata struct {
	Educational json.RawMessage `json:"educationalContent,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	LLMModel    string          `json:"llmModel,omitempty"`
}

// Edge is a directed connection derived from a choice. Edges are never
// persisted; they exist only in reconstructed DAGs.
type Edge struct {
	FromNodeID string `json:"fromNodeId"`
	ToNodeID   string `json:"toNodeId"`
	ChoiceID   string `json:"choiceId"`
}
