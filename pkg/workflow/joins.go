package workflow

import "sync"

// joinDecision is the outcome of one arrival at a join node.
type joinDecision int

const (
	// joinFire: this arrival executes the node.
	joinFire joinDecision = iota
	// joinWait: the node waits for more incoming connections.
	joinWait
	// joinDone: the node already fired in this run.
	joinDone
)

// joinTracker remembers, per run, which incoming connections of a join node
// (in-degree > 1) have delivered. A join node fires exactly once per run:
// wait-all nodes fire when every incoming connection has arrived, everything
// else fires on the first arrival and ignores the rest. State lives in
// memory for the duration of the run.
type joinTracker struct {
	mu   sync.Mutex
	runs map[string]map[string]*joinState
}

type joinState struct {
	arrived map[string]bool
	fired   bool
}

func newJoinTracker() *joinTracker {
	return &joinTracker{runs: make(map[string]map[string]*joinState)}
}

// Arrive records that connectionID delivered into nodeID within runID and
// decides whether this arrival executes the node.
func (t *joinTracker) Arrive(runID, nodeID, connectionID string, waitAll bool, inDegree int) joinDecision {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes, ok := t.runs[runID]
	if !ok {
		nodes = make(map[string]*joinState)
		t.runs[runID] = nodes
	}

	state, ok := nodes[nodeID]
	if !ok {
		state = &joinState{arrived: make(map[string]bool)}
		nodes[nodeID] = state
	}

	if state.fired {
		return joinDone
	}

	state.arrived[connectionID] = true

	if waitAll && len(state.arrived) < inDegree {
		return joinWait
	}

	state.fired = true

	return joinFire
}

// Forget drops all join state of a finished run.
func (t *joinTracker) Forget(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.runs, runID)
}
