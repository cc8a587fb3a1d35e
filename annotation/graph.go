package annotation

import (
	"fmt"
	"log/slog"
	"sync"

	stderrors "errors"

	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/metric"
)

// GraphState tracks where a FeatureGraph sits in its lifecycle.
type GraphState string

const (
	// StateBuilding means inserts are in flight; structural queries may
	// report dangling references.
	StateBuilding GraphState = "building"

	// StateValidated means the last Validate succeeded and no mutation
	// has happened since; structural queries are consistent.
	StateValidated GraphState = "validated"
)

// String returns the string representation of the GraphState.
func (gs GraphState) String() string {
	return string(gs)
}

// FeatureGraph holds a collection of features keyed by id and answers
// structural queries over their parent/child topology.
//
// Features are stored in an id-keyed arena and linked by id, never by
// pointer, so they can be inserted in any order: a parent id may name a
// feature inserted later (or, in partial mode, never). A reverse child
// index is maintained incrementally on insert, keeping ChildrenOf O(1)
// amortized instead of an O(n^2) scan.
//
// The graph is internally guarded by a read-write lock, enforcing the
// single-writer/multiple-reader contract: any number of concurrent
// readers, writers exclusive.
//
// Lifecycle: a graph is Building while inserts land, Validated after a
// successful Validate, and drops back to Building on any mutation.
type FeatureGraph struct {
	mu sync.RWMutex

	features map[string]*Feature
	order    []string
	// children maps parent id to child ids in insertion order. Entries
	// are keyed by referenced parent id, which may not be inserted yet.
	children map[string][]string
	state    GraphState

	partial    bool
	exhaustive bool
	setID      string
	logger     *slog.Logger
	metrics    *metric.Metrics
}

// GraphOption is a functional option for configuring FeatureGraph
// construction.
type GraphOption func(*FeatureGraph)

// WithPartial marks the graph as partially loaded: unresolved parent
// references are tolerated rather than reported as dangling. Default is
// strict.
func WithPartial() GraphOption {
	return func(g *FeatureGraph) {
		g.partial = true
	}
}

// WithExhaustiveValidation makes Validate report every violation found,
// joined into one error, instead of stopping at the first.
func WithExhaustiveValidation() GraphOption {
	return func(g *FeatureGraph) {
		g.exhaustive = true
	}
}

// WithOwningSet binds the graph to a feature set id; Validate then
// requires every feature's FeatureSetID to match it. Unbound graphs
// instead require all features to agree on one set id.
func WithOwningSet(setID string) GraphOption {
	return func(g *FeatureGraph) {
		g.setID = setID
	}
}

// WithLogger sets the logger used for validation diagnostics.
func WithLogger(logger *slog.Logger) GraphOption {
	return func(g *FeatureGraph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation of graph operations.
func WithMetrics(m *metric.Metrics) GraphOption {
	return func(g *FeatureGraph) {
		g.metrics = m
	}
}

// NewFeatureGraph creates an empty graph in the Building state.
func NewFeatureGraph(opts ...GraphOption) *FeatureGraph {
	g := &FeatureGraph{
		features: make(map[string]*Feature),
		children: make(map[string][]string),
		state:    StateBuilding,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Insert adds a feature to the graph.
// Returns ErrDuplicateID when the id is already present. A failed
// insert leaves the graph unmodified. A successful insert moves the
// graph back to Building.
func (g *FeatureGraph) Insert(f *Feature) error {
	if f == nil {
		return errors.WrapInvalid(errors.ErrMissingRequired, "FeatureGraph", "Insert", "feature is nil")
	}
	if err := f.Validate(); err != nil {
		return errors.WrapInvalid(err, "FeatureGraph", "Insert", "feature validation")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.features[f.ID]; exists {
		return errors.WrapInvalid(errors.ErrDuplicateID, "FeatureGraph", "Insert",
			fmt.Sprintf("feature %q", f.ID))
	}

	g.features[f.ID] = f
	g.order = append(g.order, f.ID)
	for _, parentID := range f.ParentIDs {
		g.children[parentID] = append(g.children[parentID], f.ID)
	}
	g.state = StateBuilding

	if g.metrics != nil {
		g.metrics.GraphInserts.Inc()
		g.metrics.GraphFeatures.Set(float64(len(g.features)))
	}
	return nil
}

// Remove deletes a feature from the graph.
// Children keep their parent ids: parent references are lookups, not
// ownership, so removing a parent simply makes later strict-mode
// resolution report dangling (partial mode resolves to fewer parents).
// Removing an absent id reports ErrNotFound.
func (g *FeatureGraph) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, exists := g.features[id]
	if !exists {
		return errors.WrapInvalid(errors.ErrNotFound, "FeatureGraph", "Remove",
			fmt.Sprintf("feature %q", id))
	}

	delete(g.features, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	// Drop the removed feature from its parents' child lists. The
	// index entry keyed by id itself stays: surviving children still
	// reference id in their ParentIDs.
	for _, parentID := range f.ParentIDs {
		siblings := g.children[parentID]
		for i, childID := range siblings {
			if childID == id {
				g.children[parentID] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
		if len(g.children[parentID]) == 0 {
			delete(g.children, parentID)
		}
	}
	g.state = StateBuilding

	if g.metrics != nil {
		g.metrics.GraphRemovals.Inc()
		g.metrics.GraphFeatures.Set(float64(len(g.features)))
	}
	return nil
}

// Get returns the feature for id and true when present.
// The returned feature must be treated as read-only; mutations go
// through Remove and Insert so the reverse index stays consistent.
func (g *FeatureGraph) Get(id string) (*Feature, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	f, ok := g.features[id]
	return f, ok
}

// Len returns the number of features held.
func (g *FeatureGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.features)
}

// State returns the current lifecycle state.
func (g *FeatureGraph) State() GraphState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.state
}

// ParentsOf resolves the parent references of the feature with id.
//
// In strict mode (the default) an unresolvable parent id reports
// ErrDanglingReference. In partial mode unresolved parents are skipped:
// a feature whose parents are all missing resolves to an empty
// sequence without error.
func (g *FeatureGraph) ParentsOf(id string) ([]*Feature, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	f, ok := g.features[id]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrNotFound, "FeatureGraph", "ParentsOf",
			fmt.Sprintf("feature %q", id))
	}

	parents := make([]*Feature, 0, len(f.ParentIDs))
	for _, parentID := range f.ParentIDs {
		parent, ok := g.features[parentID]
		if !ok {
			if g.partial {
				continue
			}
			return nil, errors.WrapInvalid(errors.ErrDanglingReference, "FeatureGraph", "ParentsOf",
				fmt.Sprintf("feature %q parent %q", id, parentID))
		}
		parents = append(parents, parent)
	}
	return parents, nil
}

// ChildrenOf returns the features that reference id as a parent, in
// insertion order. The id itself need not be inserted: forward
// references index children under parent ids that may arrive later.
func (g *FeatureGraph) ChildrenOf(id string) []*Feature {
	g.mu.RLock()
	defer g.mu.RUnlock()

	childIDs := g.children[id]
	children := make([]*Feature, 0, len(childIDs))
	for _, childID := range childIDs {
		// Child entries are maintained on insert/remove, so the lookup
		// cannot miss; guard anyway rather than return a nil feature.
		if child, ok := g.features[childID]; ok {
			children = append(children, child)
		}
	}
	return children
}

// Roots returns the features with no parent references, in insertion
// order.
func (g *FeatureGraph) Roots() []*Feature {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var roots []*Feature
	for _, id := range g.order {
		if f := g.features[id]; f.IsRoot() {
			roots = append(roots, f)
		}
	}
	return roots
}

// Descendants returns every feature reachable from id through the child
// index, in breadth-first insertion order. Each feature is visited
// exactly once even under diamond (multi-parent) topologies.
// Acyclicity is a precondition, enforced by Validate.
func (g *FeatureGraph) Descendants(id string) ([]*Feature, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.features[id]; !ok {
		return nil, errors.WrapInvalid(errors.ErrNotFound, "FeatureGraph", "Descendants",
			fmt.Sprintf("feature %q", id))
	}

	visited := map[string]bool{id: true}
	queue := append([]string(nil), g.children[id]...)
	var descendants []*Feature

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		if f, ok := g.features[current]; ok {
			descendants = append(descendants, f)
		}
		queue = append(queue, g.children[current]...)
	}
	return descendants, nil
}

// Validate checks the graph's structural invariants:
//
//  1. no feature is its own ancestor (cycle detection),
//  2. every parent reference resolves (skipped in partial mode),
//  3. every feature's FeatureSetID matches the owning set.
//
// It returns the first violation found or, with exhaustive validation
// enabled, all violations joined into one error. Validate never mutates
// feature data and never repairs: callers fix and re-validate. On
// success the graph moves to Validated.
func (g *FeatureGraph) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var violations []error

	report := func(err error) bool {
		violations = append(violations, err)
		return !g.exhaustive
	}

	if err := g.checkCycles(report); err != nil {
		return g.finishValidate(violations, "cycle")
	}
	if !g.partial {
		if err := g.checkDangling(report); err != nil {
			return g.finishValidate(violations, "dangling")
		}
	}
	if err := g.checkSetConsistency(report); err != nil {
		return g.finishValidate(violations, "set_mismatch")
	}

	if len(violations) > 0 {
		return g.finishValidate(violations, "multiple")
	}

	g.state = StateValidated
	if g.metrics != nil {
		g.metrics.GraphValidations.WithLabelValues("ok").Inc()
	}
	return nil
}

// finishValidate logs and counts a failed validation. The graph state
// is left untouched: a failed Validate must not mutate.
func (g *FeatureGraph) finishValidate(violations []error, result string) error {
	err := stderrors.Join(violations...)
	g.logger.Warn("feature graph validation failed",
		"result", result,
		"violations", len(violations),
		"error", err)
	if g.metrics != nil {
		g.metrics.GraphValidations.WithLabelValues(result).Inc()
	}
	return err
}

// dfs colors for cycle detection
const (
	colorWhite = iota // unvisited
	colorGrey         // on the current traversal path
	colorBlack        // fully explored
)

// checkCycles runs an iterative depth-first traversal over parent edges
// with a three-color marking: meeting a grey node means the current
// path re-entered itself. Black nodes short-circuit revisits so diamond
// topologies stay linear.
func (g *FeatureGraph) checkCycles(report func(error) bool) error {
	colors := make(map[string]int, len(g.features))

	type frame struct {
		id   string
		next int
	}

	for _, start := range g.order {
		if colors[start] != colorWhite {
			continue
		}

		colors[start] = colorGrey
		stack := []frame{{id: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			f := g.features[top.id]

			pushed := false
			for top.next < len(f.ParentIDs) {
				parentID := f.ParentIDs[top.next]
				top.next++

				if _, present := g.features[parentID]; !present {
					// Unresolved reference; the dangling check owns it.
					continue
				}
				switch colors[parentID] {
				case colorGrey:
					err := errors.WrapInvalid(errors.ErrCycleDetected, "FeatureGraph", "Validate",
						fmt.Sprintf("feature %q", parentID))
					if report(err) {
						return err
					}
				case colorWhite:
					colors[parentID] = colorGrey
					stack = append(stack, frame{id: parentID})
					pushed = true
				}
				if pushed {
					break
				}
			}
			if !pushed {
				colors[top.id] = colorBlack
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}

// checkDangling verifies every parent reference resolves.
func (g *FeatureGraph) checkDangling(report func(error) bool) error {
	for _, id := range g.order {
		f := g.features[id]
		for _, parentID := range f.ParentIDs {
			if _, present := g.features[parentID]; !present {
				err := errors.WrapInvalid(errors.ErrDanglingReference, "FeatureGraph", "Validate",
					fmt.Sprintf("feature %q parent %q", id, parentID))
				if report(err) {
					return err
				}
			}
		}
	}
	return nil
}

// checkSetConsistency verifies every feature belongs to the owning set.
// Bound graphs check against the bound id; unbound graphs require all
// features to agree on a single set id.
func (g *FeatureGraph) checkSetConsistency(report func(error) bool) error {
	expected := g.setID
	for _, id := range g.order {
		f := g.features[id]
		if expected == "" {
			expected = f.FeatureSetID
			continue
		}
		if f.FeatureSetID != expected {
			err := errors.WrapInvalid(errors.ErrSetMismatch, "FeatureGraph", "Validate",
				fmt.Sprintf("feature %q set %q, want %q", id, f.FeatureSetID, expected))
			if report(err) {
				return err
			}
		}
	}
	return nil
}
