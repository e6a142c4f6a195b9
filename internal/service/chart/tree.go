package chart

import (
	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Tree is the in-memory chart-of-accounts hierarchy for one account type.
// It is an arena of nodes keyed by id with explicit parent ids and a derived
// children index; acyclicity is guaranteed procedurally by Attach/Move/Remove,
// there is no self-healing pass over raw parent pointers.
type Tree struct {
	typ      ledger.AccountType
	root     uuid.UUID
	nodes    map[uuid.UUID]ledger.Chart
	children map[uuid.UUID][]uuid.UUID
}

// NewTree starts a tree from a root node. The root must carry a valid type
// and no parent.
func NewTree(root ledger.Chart) (*Tree, error) {
	if !root.Type.Valid() {
		return nil, errs.Wrap(errs.ErrInvalid, "unknown account type %q", root.Type)
	}
	if root.ID == uuid.Nil {
		return nil, errs.Wrap(errs.ErrInvalid, "root id is required")
	}
	if !root.Root() {
		return nil, errs.Wrap(errs.ErrInvalid, "root must not have a parent")
	}
	t := &Tree{
		typ:      root.Type,
		root:     root.ID,
		nodes:    map[uuid.UUID]ledger.Chart{root.ID: root},
		children: map[uuid.UUID][]uuid.UUID{},
	}
	return t, nil
}

// FromNodes rebuilds a tree from persisted rows. Exactly one root must be
// present and every node must carry the same type and a known parent.
func FromNodes(typ ledger.AccountType, nodes []ledger.Chart) (*Tree, error) {
	var root *ledger.Chart
	byID := make(map[uuid.UUID]ledger.Chart, len(nodes))
	for i := range nodes {
		n := nodes[i]
		if n.Type != typ {
			return nil, errs.Wrap(errs.ErrInvalid, "node %s has type %q, want %q", n.ID, n.Type, typ)
		}
		if _, ok := byID[n.ID]; ok {
			return nil, errs.Wrap(errs.ErrInvalid, "duplicate node %s", n.ID)
		}
		byID[n.ID] = n
		if n.Root() {
			if root != nil {
				return nil, errs.Wrap(errs.ErrInvalid, "more than one root for type %q", typ)
			}
			root = &nodes[i]
		}
	}
	if root == nil {
		return nil, errs.Wrap(errs.ErrNotExist, "no root persisted for type %q", typ)
	}
	t, err := NewTree(*root)
	if err != nil {
		return nil, err
	}
	t.nodes = byID
	for id, n := range byID {
		if n.Root() {
			continue
		}
		if _, ok := byID[n.ParentID]; !ok {
			return nil, errs.Wrap(errs.ErrInvalid, "node %s references missing parent %s", id, n.ParentID)
		}
		t.children[n.ParentID] = append(t.children[n.ParentID], id)
	}
	return t, nil
}

// Type returns the account type the tree classifies.
func (t *Tree) Type() ledger.AccountType { return t.typ }

// Root returns the root node.
func (t *Tree) Root() ledger.Chart { return t.nodes[t.root] }

// Node returns the node with the given id.
func (t *Tree) Node(id uuid.UUID) (ledger.Chart, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Size returns the number of nodes in the tree.
func (t *Tree) Size() int { return len(t.nodes) }

// Children returns the direct children of id.
func (t *Tree) Children(id uuid.UUID) []ledger.Chart {
	ids := t.children[id]
	out := make([]ledger.Chart, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.nodes[cid])
	}
	return out
}

// Attach adds a new node beneath parentID. The node inherits the tree's
// account type; a missing parent fails NotExist.
func (t *Tree) Attach(node ledger.Chart, parentID uuid.UUID) error {
	if node.ID == uuid.Nil {
		return errs.Wrap(errs.ErrInvalid, "node id is required")
	}
	if node.Type != t.typ {
		return errs.Wrap(errs.ErrInvalid, "node type %q does not match tree type %q", node.Type, t.typ)
	}
	if _, ok := t.nodes[node.ID]; ok {
		return errs.Wrap(errs.ErrAlreadyExist, "node %s already in tree", node.ID)
	}
	if _, ok := t.nodes[parentID]; !ok {
		return errs.Wrap(errs.ErrNotExist, "parent %s not in tree", parentID)
	}
	node.ParentID = parentID
	t.nodes[node.ID] = node
	t.children[parentID] = append(t.children[parentID], node.ID)
	return nil
}

// Move re-parents the subtree rooted at id. The precondition that
// newParentID is not a descendant of id is the caller's responsibility and
// is not re-validated here.
func (t *Tree) Move(id, newParentID uuid.UUID) error {
	n, ok := t.nodes[id]
	if !ok {
		return errs.Wrap(errs.ErrNotExist, "node %s not in tree", id)
	}
	if id == t.root {
		return errs.Wrap(errs.ErrOpNotPermitted, "cannot move the root")
	}
	if _, ok := t.nodes[newParentID]; !ok {
		return errs.Wrap(errs.ErrNotExist, "parent %s not in tree", newParentID)
	}
	t.unlink(n.ParentID, id)
	n.ParentID = newParentID
	t.nodes[id] = n
	t.children[newParentID] = append(t.children[newParentID], id)
	return nil
}

// Rename updates a node's display name.
func (t *Tree) Rename(id uuid.UUID, name string) error {
	n, ok := t.nodes[id]
	if !ok {
		return errs.Wrap(errs.ErrNotExist, "node %s not in tree", id)
	}
	n.Name = name
	t.nodes[id] = n
	return nil
}

// Remove detaches the subtree rooted at id and drops its nodes from the
// arena. A subsequent Save deletes the corresponding persisted rows.
func (t *Tree) Remove(id uuid.UUID) error {
	n, ok := t.nodes[id]
	if !ok {
		return errs.Wrap(errs.ErrNotExist, "node %s not in tree", id)
	}
	if id == t.root {
		return errs.Wrap(errs.ErrOpNotPermitted, "cannot remove the root")
	}
	for _, sub := range t.Subtree(id) {
		delete(t.nodes, sub)
		delete(t.children, sub)
	}
	t.unlink(n.ParentID, id)
	return nil
}

func (t *Tree) unlink(parentID, id uuid.UUID) {
	ids := t.children[parentID]
	for i, cid := range ids {
		if cid == id {
			t.children[parentID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// PreOrder returns every node id, parents before their descendants.
func (t *Tree) PreOrder() []uuid.UUID { return t.Subtree(t.root) }

// Subtree returns the ids of the subtree rooted at id in pre-order.
func (t *Tree) Subtree(id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(t.nodes))
	stack := []uuid.UUID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := t.nodes[cur]; !ok {
			continue
		}
		out = append(out, cur)
		ids := t.children[cur]
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, ids[i])
		}
	}
	return out
}

// Nodes returns every node in pre-order.
func (t *Tree) Nodes() []ledger.Chart {
	ids := t.PreOrder()
	out := make([]ledger.Chart, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id])
	}
	return out
}
