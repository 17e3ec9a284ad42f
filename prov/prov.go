// Package prov records which operation produced which data item from which
// sources. The resulting graph is what makes multi-stage pipelines
// debuggable: given any annotation uid, it can be walked back to the raw
// text that produced it.
package prov

import (
	"github.com/c360studio/medtext/ident"
)

// OperationDescription identifies one configured pipeline operation.
type OperationDescription struct {
	// UID identifies this operation instance.
	UID string `json:"uid"`

	// Name is the operation kind (e.g. "SyntagmaTokenizer").
	Name string `json:"name"`

	// Config captures the parameters the operation ran with.
	Config map[string]any `json:"config,omitempty"`
}

// NewOperationDescription builds a description, generating the uid when
// empty.
func NewOperationDescription(uid, name string, config map[string]any) OperationDescription {
	if uid == "" {
		uid = ident.New()
	}
	return OperationDescription{UID: uid, Name: name, Config: config}
}

// Node links one produced data item to the operation that produced it and
// the data items it was derived from.
type Node struct {
	// DataItemUID is the uid of the produced annotation or attribute.
	DataItemUID string `json:"data_item_uid"`

	// OperationUID is the uid of the producing operation.
	OperationUID string `json:"operation_uid"`

	// SourceUIDs are the uids of the inputs the item was derived from.
	SourceUIDs []string `json:"source_uids"`
}

// Builder accumulates provenance nodes while a pipeline runs. It is not
// safe for concurrent use; like documents, provenance is written by one
// stage at a time.
type Builder struct {
	nodes map[string]*Node
	ops   map[string]OperationDescription
	order []string
}

// NewBuilder creates an empty provenance builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]*Node),
		ops:   make(map[string]OperationDescription),
	}
}

// Add records that op produced dataItemUID from sourceUIDs.
func (b *Builder) Add(dataItemUID string, op OperationDescription, sourceUIDs []string) {
	sources := make([]string, len(sourceUIDs))
	copy(sources, sourceUIDs)

	if _, seen := b.nodes[dataItemUID]; !seen {
		b.order = append(b.order, dataItemUID)
	}
	b.nodes[dataItemUID] = &Node{
		DataItemUID:  dataItemUID,
		OperationUID: op.UID,
		SourceUIDs:   sources,
	}
	b.ops[op.UID] = op
}

// Node returns the provenance node for a data item uid.
func (b *Builder) Node(dataItemUID string) (*Node, bool) {
	n, ok := b.nodes[dataItemUID]
	return n, ok
}

// Operation returns the description of a recorded operation.
func (b *Builder) Operation(operationUID string) (OperationDescription, bool) {
	op, ok := b.ops[operationUID]
	return op, ok
}

// Nodes returns all provenance nodes in recording order.
func (b *Builder) Nodes() []*Node {
	nodes := make([]*Node, 0, len(b.order))
	for _, uid := range b.order {
		nodes = append(nodes, b.nodes[uid])
	}
	return nodes
}

// Trace walks the graph from a data item back to its ultimate sources:
// uids that were never produced by a recorded operation (typically the raw
// segment).
func (b *Builder) Trace(dataItemUID string) []string {
	var roots []string
	seen := make(map[string]bool)

	var walk func(uid string)
	walk = func(uid string) {
		if seen[uid] {
			return
		}
		seen[uid] = true
		node, ok := b.nodes[uid]
		if !ok {
			roots = append(roots, uid)
			return
		}
		for _, src := range node.SourceUIDs {
			walk(src)
		}
	}
	walk(dataItemUID)
	return roots
}
