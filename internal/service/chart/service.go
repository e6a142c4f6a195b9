// Package chart implements chart-of-accounts tree management: one
// single-rooted hierarchy per account type with safe restructuring. Bulk
// persistence goes through Save, which diffs an in-memory tree against the
// persisted rows and applies the delta in one all-or-nothing write.
package chart

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	ChartsByType(ctx context.Context, typ ledger.AccountType) ([]ledger.Chart, error)
	Chart(ctx context.Context, id uuid.UUID) (ledger.Chart, error)
	// AccountsByCharts returns accounts attached to any of the given nodes.
	AccountsByCharts(ctx context.Context, chartIDs []uuid.UUID) ([]ledger.Account, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	InsertChart(ctx context.Context, c ledger.Chart) error
	UpdateChart(ctx context.Context, c ledger.Chart) error
	// ApplyChartDiff applies inserts (parents first), updates and deletes
	// (deepest descendants first) as one all-or-nothing unit.
	ApplyChartDiff(ctx context.Context, inserts, updates []ledger.Chart, deletes []uuid.UUID) error
}

// Service exposes the chart-of-accounts tree operations.
type Service interface {
	Load(ctx context.Context, typ ledger.AccountType) (*Tree, error)
	Save(ctx context.Context, tree *Tree) error
	AddChart(ctx context.Context, child ledger.Chart, parentID uuid.UUID) (ledger.Chart, error)
	MoveChart(ctx context.Context, id, newParentID uuid.UUID) error
	DeleteChart(ctx context.Context, id uuid.UUID) error
	GetChart(ctx context.Context, id uuid.UUID) (ledger.Chart, error)
	GetCharts(ctx context.Context, typ ledger.AccountType) ([]ledger.Chart, error)
	GetParentChart(ctx context.Context, id uuid.UUID) (ledger.Chart, error)
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the chart service.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// Load materializes the full persisted tree for the account type. It fails
// NotExist when no root is persisted for that type.
func (s *service) Load(ctx context.Context, typ ledger.AccountType) (*Tree, error) {
	if !typ.Valid() {
		return nil, errs.Wrap(errs.ErrInvalid, "unknown account type %q", typ)
	}
	rows, err := s.repo.ChartsByType(ctx, typ)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.Wrap(errs.ErrNotExist, "no chart persisted for type %q", typ)
	}
	return FromNodes(typ, rows)
}

// Save diffs the supplied in-memory tree against the persisted rows of the
// same type. Nodes only in memory are inserted (parents first), nodes in
// both are updated, and persisted nodes absent from the tree are deleted in
// reverse pre-order so the self-referencing parent key is never violated.
// Any delete-slated node that still carries an account blocks the whole
// call; nothing is applied.
func (s *service) Save(ctx context.Context, tree *Tree) error {
	persisted, err := s.repo.ChartsByType(ctx, tree.Type())
	if err != nil {
		return err
	}
	persistedByID := make(map[uuid.UUID]ledger.Chart, len(persisted))
	for _, c := range persisted {
		persistedByID[c.ID] = c
	}

	var inserts, updates []ledger.Chart
	for _, id := range tree.PreOrder() { // pre-order keeps parents ahead of children
		node, _ := tree.Node(id)
		old, ok := persistedByID[id]
		switch {
		case !ok:
			inserts = append(inserts, node)
		case !old.Equal(node):
			updates = append(updates, node)
		}
	}

	var deletes []uuid.UUID
	for _, c := range persisted {
		if _, ok := tree.Node(c.ID); !ok {
			deletes = append(deletes, c.ID)
		}
	}
	if len(deletes) > 0 {
		sortDeepestFirst(deletes, persistedByID)
		attached, err := s.repo.AccountsByCharts(ctx, deletes)
		if err != nil {
			return err
		}
		if len(attached) > 0 {
			return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "%d account(s) still attached to removed node(s)", len(attached))
		}
	}
	if len(inserts) == 0 && len(updates) == 0 && len(deletes) == 0 {
		return nil
	}
	return s.writer.ApplyChartDiff(ctx, inserts, updates, deletes)
}

// AddChart attaches a new node beneath an existing node of the same type.
func (s *service) AddChart(ctx context.Context, child ledger.Chart, parentID uuid.UUID) (ledger.Chart, error) {
	parent, err := s.repo.Chart(ctx, parentID)
	if err != nil {
		return ledger.Chart{}, err
	}
	if child.Name == "" {
		return ledger.Chart{}, errs.Wrap(errs.ErrInvalid, "name is required")
	}
	if child.Type != parent.Type {
		return ledger.Chart{}, errs.Wrap(errs.ErrInvalid, "child type %q does not match parent type %q", child.Type, parent.Type)
	}
	if child.ID == uuid.Nil {
		child.ID = uuid.New()
	}
	child.ParentID = parent.ID
	if err := s.writer.InsertChart(ctx, child); err != nil {
		return ledger.Chart{}, err
	}
	return child, nil
}

// MoveChart re-parents the subtree rooted at id. The precondition that the
// new parent is not a descendant of id is the caller's responsibility.
func (s *service) MoveChart(ctx context.Context, id, newParentID uuid.UUID) error {
	node, err := s.repo.Chart(ctx, id)
	if err != nil {
		return err
	}
	parent, err := s.repo.Chart(ctx, newParentID)
	if err != nil {
		return err
	}
	if node.Root() {
		return errs.Wrap(errs.ErrOpNotPermitted, "cannot move the root")
	}
	if node.Type != parent.Type {
		return errs.Wrap(errs.ErrInvalid, "cannot move across account types")
	}
	node.ParentID = parent.ID
	return s.writer.UpdateChart(ctx, node)
}

// DeleteChart detaches the node and removes its subtree, deepest nodes
// first. It is blocked while the node or any descendant still has an
// account attached.
func (s *service) DeleteChart(ctx context.Context, id uuid.UUID) error {
	node, err := s.repo.Chart(ctx, id)
	if err != nil {
		return err
	}
	if node.Root() {
		return errs.Wrap(errs.ErrOpNotPermitted, "cannot delete the root")
	}
	tree, err := s.Load(ctx, node.Type)
	if err != nil {
		return err
	}
	subtree := tree.Subtree(id)
	attached, err := s.repo.AccountsByCharts(ctx, subtree)
	if err != nil {
		return err
	}
	if len(attached) > 0 {
		return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "%d account(s) still attached under node %s", len(attached), id)
	}
	// Detach first, then delete children before parents.
	node.ParentID = uuid.Nil
	reverse(subtree)
	return s.writer.ApplyChartDiff(ctx, nil, []ledger.Chart{node}, subtree)
}

// GetChart returns a single node.
func (s *service) GetChart(ctx context.Context, id uuid.UUID) (ledger.Chart, error) {
	return s.repo.Chart(ctx, id)
}

// GetCharts returns every node of the account type.
func (s *service) GetCharts(ctx context.Context, typ ledger.AccountType) ([]ledger.Chart, error) {
	if !typ.Valid() {
		return nil, errs.Wrap(errs.ErrInvalid, "unknown account type %q", typ)
	}
	return s.repo.ChartsByType(ctx, typ)
}

// GetParentChart returns the parent of id, or NotExist for a root.
func (s *service) GetParentChart(ctx context.Context, id uuid.UUID) (ledger.Chart, error) {
	node, err := s.repo.Chart(ctx, id)
	if err != nil {
		return ledger.Chart{}, err
	}
	if node.Root() {
		return ledger.Chart{}, errs.Wrap(errs.ErrNotExist, "node %s has no parent", id)
	}
	return s.repo.Chart(ctx, node.ParentID)
}

// sortDeepestFirst orders ids so descendants precede their ancestors,
// derived from the persisted parent pointers.
func sortDeepestFirst(ids []uuid.UUID, byID map[uuid.UUID]ledger.Chart) {
	depth := func(id uuid.UUID) int {
		d := 0
		for cur, ok := byID[id]; ok && !cur.Root(); cur, ok = byID[cur.ParentID] {
			d++
		}
		return d
	}
	sort.SliceStable(ids, func(a, b int) bool { return depth(ids[a]) > depth(ids[b]) })
}

func reverse(ids []uuid.UUID) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
