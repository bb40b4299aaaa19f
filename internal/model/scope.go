package model

// ScopeID addresses a node in a ScopeTree.
type ScopeID int

// NoScope is the parent of the root scope.
const NoScope ScopeID = -1

// ScopeNode is one lexical block. MarkerID is the id of the opening brace
// marker, or -1 for the file-level root.
type ScopeNode struct {
	MarkerID int
	Parent   ScopeID
	Children []ScopeID
}

// ScopeTree is an arena of lexical blocks. Nodes are never removed, so a
// ScopeID stays valid for the lifetime of the tree.
type ScopeTree struct {
	nodes []ScopeNode
}

// NewScopeTree returns a tree holding only the file-level root.
func NewScopeTree() *ScopeTree {
	return &ScopeTree{nodes: []ScopeNode{{MarkerID: -1, Parent: NoScope}}}
}

// Root is the file-level scope.
func (t *ScopeTree) Root() ScopeID {
	return 0
}

// Open adds a child block under parent and returns its id.
func (t *ScopeTree) Open(parent ScopeID, markerID int) ScopeID {
	id := ScopeID(len(t.nodes))
	t.nodes = append(t.nodes, ScopeNode{MarkerID: markerID, Parent: parent})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)

	return id
}

// Parent returns the enclosing block, or the root itself for the root.
func (t *ScopeTree) Parent(id ScopeID) ScopeID {
	if p := t.nodes[id].Parent; p != NoScope {
		return p
	}

	return t.Root()
}

// Node returns a copy of the node for id.
func (t *ScopeTree) Node(id ScopeID) ScopeNode {
	return t.nodes[id]
}

// Len is the number of blocks including the root.
func (t *ScopeTree) Len() int {
	return len(t.nodes)
}

// IsDescendant reports whether node lies strictly inside ancestor.
func (t *ScopeTree) IsDescendant(node, ancestor ScopeID) bool {
	for cur := t.nodes[node].Parent; cur != NoScope; cur = t.nodes[cur].Parent {
		if cur == ancestor {
			return true
		}
	}

	return false
}

// Contains reports whether node is ancestor or lies inside it.
func (t *ScopeTree) Contains(ancestor, node ScopeID) bool {
	return node == ancestor || t.IsDescendant(node, ancestor)
}
