package schema

// Record is the raw flow-graph input: one procedure with its BPMN-style
// node/edge description. Field names follow the dataset's JSON format.
type Record struct {
	FileIndex     int        `json:"file_index"`
	ProcedureText string     `json:"procedure_text"`
	StepNodes     []FlowNode `json:"step_nodes"`
	SequenceFlow  []FlowEdge `json:"SequenceFlow"`
}

// FlowNode is one graph vertex of a record.
type FlowNode struct {
	ResourceID string   `json:"resourceId"`
	Kind       NodeKind `json:"type"`
	Text       string   `json:"NodeText"`
	Agent      string   `json:"agent"`
}

// FlowEdge is a directed edge between two nodes, optionally guarded by a
// branch condition label.
type FlowEdge struct {
	Source    string `json:"src"`
	Target    string `json:"tgt"`
	Condition string `json:"condition"`
}

// NodeKind enumerates the node types appearing in records.
type NodeKind string

const (
	NodeKindStart     NodeKind = "StartNode"
	NodeKindEnd       NodeKind = "EndNode"
	NodeKindActivity  NodeKind = "Activity"
	NodeKindExclusive NodeKind = "XOR"
	NodeKindParallel  NodeKind = "AND"
	NodeKindInclusive NodeKind = "OR"
)

// IsGateway reports whether the kind is a branching gateway.
func (k NodeKind) IsGateway() bool {
	return k == NodeKindExclusive || k == NodeKindParallel || k == NodeKindInclusive
}

// IsActionable reports whether nodes of this kind can become actions
// (provided they carry a non-empty text label).
func (k NodeKind) IsActionable() bool {
	return k == NodeKindActivity || k == NodeKindStart || k == NodeKindEnd
}

// GatewayType is the normalized gateway semantics in the output schema.
type GatewayType string

const (
	GatewayExclusive GatewayType = "exclusive"
	GatewayParallel  GatewayType = "parallel"
	GatewayInclusive GatewayType = "inclusive"
)

// GatewayTypeOf maps a gateway node kind to its normalized type.
// Returns "" for non-gateway kinds.
func GatewayTypeOf(k NodeKind) GatewayType {
	switch k {
	case NodeKindExclusive:
		return GatewayExclusive
	case NodeKindParallel:
		return GatewayParallel
	case NodeKindInclusive:
		return GatewayInclusive
	}
	return ""
}

// GatewayRole classifies a gateway by its in/out degree.
type GatewayRole string

const (
	RoleSplit       GatewayRole = "split"
	RoleMerge       GatewayRole = "merge"
	RoleJoinSplit   GatewayRole = "join_split"
	RolePassThrough GatewayRole = "pass_through"
)

// RoleFor derives the gateway role from raw in/out degree.
func RoleFor(inDegree, outDegree int) GatewayRole {
	switch {
	case inDegree <= 1 && outDegree > 1:
		return RoleSplit
	case inDegree > 1 && outDegree <= 1:
		return RoleMerge
	case inDegree > 1 && outDegree > 1:
		return RoleJoinSplit
	}
	return RolePassThrough
}

// StartSentinel is the predecessor reference used for unlabeled start nodes.
const StartSentinel = "start"

// Action is one named step of the normalized workflow.
type Action struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Actor          string   `json:"actor,omitempty"`
	Predecessors   []string `json:"predecessors"`
	Successors     []string `json:"successors"`
	Postconditions []string `json:"postconditions"`
}

// Branch is one outgoing edge of a gateway. Next is nil exactly when the
// branch terminates the process (edge into an unlabeled end node); the
// condition label is preserved either way.
type Branch struct {
	Next      *string `json:"next"`
	Condition string  `json:"condition,omitempty"`
}

// Gateway is a branching point of the normalized workflow.
type Gateway struct {
	ID           string      `json:"id"`
	Type         GatewayType `json:"type"`
	Role         GatewayRole `json:"role"`
	IncomingFrom []string    `json:"incoming_from"`
	Branches     []Branch    `json:"branches"`
	Actor        string      `json:"actor,omitempty"`
}

// ExecutionState describes one distinct prefix of completed actions and the
// actions legally available next across all enumerated paths.
type ExecutionState struct {
	CompletedActions []string `json:"completed_actions"`
	AvailableNext    []string `json:"available_next"`
	CanTerminate     bool     `json:"can_terminate,omitempty"`
}

// Workflow is the normalized schema extracted from one record.
type Workflow struct {
	Actors          []string         `json:"actors"`
	Actions         []Action         `json:"actions"`
	Gateways        []Gateway        `json:"gateways"`
	ExecutionStates []ExecutionState `json:"execution_states"`
}

// Document is the full per-record extraction output.
type Document struct {
	FileIndex     int      `json:"file_index"`
	ProcedureText string   `json:"procedure_text"`
	Workflow      Workflow `json:"workflow"`
}
