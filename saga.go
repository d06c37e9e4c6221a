package transact

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// stepSpec is one registered saga participant awaiting execution.
type stepSpec struct {
	agentID            string
	action             string
	data               map[string]any
	compensatingAction string
}

// SagaOrchestrator batches participant registrations and executes them as a
// single transaction through a Manager.
//
// Each Register call appends a node to a linear chain graph; Execute derives
// the execution order from the chain with a stabilized topological sort, so
// the order always equals registration order, then drives the Manager with
// Begin, AddStep per entry, and Commit. It adds no failure modes beyond the
// Manager's own.
type SagaOrchestrator struct {
	manager *Manager
	chain   *simple.DirectedGraph
	specs   map[int64]stepSpec
	tail    int64
}

// NewSagaOrchestrator creates a SagaOrchestrator on top of the given Manager,
// or a default Manager when nil is passed.
func NewSagaOrchestrator(manager *Manager) *SagaOrchestrator {
	if manager == nil {
		manager = NewManager()
	}
	return &SagaOrchestrator{
		manager: manager,
		chain:   simple.NewDirectedGraph(),
		specs:   make(map[int64]stepSpec),
		tail:    -1,
	}
}

// Manager returns the underlying Manager.
func (o *SagaOrchestrator) Manager() *Manager {
	return o.manager
}

// Register appends a participant step specification. No Manager interaction
// happens until Execute.
func (o *SagaOrchestrator) Register(agentID, action string, data map[string]any, compensatingAction string) {
	node := o.chain.NewNode()
	o.chain.AddNode(node)
	o.specs[node.ID()] = stepSpec{
		agentID:            agentID,
		action:             action,
		data:               data,
		compensatingAction: compensatingAction,
	}

	if o.tail >= 0 {
		o.chain.SetEdge(simple.Edge{F: o.chain.Node(o.tail), T: node})
	}
	o.tail = node.ID()
}

// Len returns the number of registered steps.
func (o *SagaOrchestrator) Len() int {
	return len(o.specs)
}

// Execute runs all registered steps as a single transaction and returns the
// commit result.
func (o *SagaOrchestrator) Execute(ctx context.Context, timeoutSeconds int) (TransactionResult, error) {
	order, err := o.executionOrder()
	if err != nil {
		return TransactionResult{}, err
	}

	id := o.manager.Begin(timeoutSeconds)
	for _, nodeID := range order {
		spec := o.specs[nodeID]
		if _, err := o.manager.AddStep(id, spec.agentID, spec.action, spec.data, spec.compensatingAction); err != nil {
			return TransactionResult{}, err
		}
	}
	return o.manager.Commit(ctx, id)
}

// executionOrder topologically sorts the chain graph, breaking ties by node
// ID for deterministic results.
func (o *SagaOrchestrator) executionOrder() ([]int64, error) {
	sorted, err := topo.SortStabilized(o.chain, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].ID() < nodes[j].ID()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to order saga steps: %w", err)
	}

	order := make([]int64, len(sorted))
	for i, node := range sorted {
		order[i] = node.ID()
	}
	return order, nil
}
