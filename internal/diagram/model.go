package diagram

// NodeKind classifies a diagram node by its workflow element type.
type NodeKind string

const (
	NodeKindAction    NodeKind = "action"
	NodeKindExclusive NodeKind = "exclusive"
	NodeKindParallel  NodeKind = "parallel"
	NodeKindInclusive NodeKind = "inclusive"
	NodeKindStart     NodeKind = "start"
	NodeKindEnd       NodeKind = "end"
)

// Model is the intermediate representation consumed by the renderer.
type Model struct {
	Title string
	Nodes []*Node
	Edges []Edge
}

// Node represents a single workflow element in the diagram.
type Node struct {
	ID    string
	Label string
	Kind  NodeKind
}

// Edge represents a flow between two nodes, optionally labeled with a
// branch condition.
type Edge struct {
	From  string
	To    string
	Label string
}
