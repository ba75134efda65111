package parser

import (
	"github.com/jobflow-io/jobflow/workflow"
)

// The fork/join validator is a second traversal over an already
// structurally-valid graph. It proves that every fork is discharged by its
// own join, that no fork path can end the workflow or duplicate a target,
// and that no node is reachable more than once at run time except through
// branches of one decision node or through error transitions.

// okVisit records a node reached over a clean (ok) transition together with
// the top decision ancestor in effect at that visit; "" means none.
type okVisit struct {
	node     string
	decision string
}

// fjState is the complete walk state of one fork/join validation call.
// Every call allocates its own state, so one parser can validate
// independent graphs concurrently.
type fjState struct {
	path         []string
	forks        []string
	joins        []string
	visitedOk    []okVisit
	visitedJoins []string
}

func (s *fjState) onPath(name string) bool {
	for _, n := range s.path {
		if n == name {
			return true
		}
	}
	return false
}

func (s *fjState) findOkVisit(name string) (okVisit, bool) {
	for _, v := range s.visitedOk {
		if v.node == name {
			return v, true
		}
	}
	return okVisit{}, false
}

func (s *fjState) joinVisited(name string) bool {
	for _, n := range s.visitedJoins {
		if n == name {
			return true
		}
	}
	return false
}

// validateForkJoin checks the fork/join count precondition and, when any
// forks exist, walks the graph from the start node.
func validateForkJoin(g *workflow.Graph, forks, joins []string) error {
	if len(forks) != len(joins) {
		return workflow.Errorf(workflow.ErrCodeForkJoinCount,
			"workflow has %d fork nodes but %d join nodes", len(forks), len(joins))
	}
	if len(forks) == 0 {
		return nil
	}
	return forkJoinWalk(g, g.Start(), &fjState{}, true, "")
}

// forkJoinWalk recursively validates the subgraph below node.
//
// okTo is false once the current branch was entered through an error
// transition or through a join already traversed once: either way the
// branch re-walks nodes that will not actually run twice, so the clean
// revisit check must stand down. topDecision is the eldest decision node
// enclosing the branch, or "".
//
// Recursion depth is bounded by the node count: a name already on the path
// stack is a cycle fault, so the path can never exceed the number of
// distinct nodes.
func forkJoinWalk(g *workflow.Graph, node *workflow.Node, st *fjState, okTo bool, topDecision string) error {
	if st.onPath(node.Name) {
		return workflow.Errorf(workflow.ErrCodeCycle, "cycle detected at node %q along path %v", node.Name, st.path)
	}
	st.path = append(st.path, node.Name)
	defer func() { st.path = st.path[:len(st.path)-1] }()

	// Clean-revisit check. Kill, join and end nodes are exempt: kills and
	// ends terminate, and joins are necessarily re-walked once per branch.
	if okTo && node.Kind != workflow.KindKill && node.Kind != workflow.KindJoin && node.Kind != workflow.KindEnd {
		if prev, seen := st.findOkVisit(node.Name); seen {
			// Legal only when both visits sit under the same eldest
			// decision: at run time just one branch of it executes.
			if prev.decision == "" || topDecision == "" || prev.decision != topDecision {
				return workflow.Errorf(workflow.ErrCodeNodeRevisit,
					"node %q would execute more than once at run time", node.Name)
			}
		} else {
			st.visitedOk = append(st.visitedOk, okVisit{node: node.Name, decision: topDecision})
		}
	}

	switch node.Kind {
	case workflow.KindStart:
		return forkJoinWalk(g, g.Node(node.Transitions[0]), st, okTo, topDecision)

	case workflow.KindAction:
		if err := forkJoinWalk(g, g.Node(node.OkTo()), st, okTo, topDecision); err != nil {
			return err
		}
		// an error path may legally re-enter nodes visited cleanly: at run
		// time only one of the two transitions is taken
		return forkJoinWalk(g, g.Node(node.ErrorTo()), st, false, topDecision)

	case workflow.KindDecision:
		ancestor := topDecision
		if ancestor == "" {
			ancestor = node.Name
		}
		seen := make(map[string]bool, len(node.Transitions))
		for _, transition := range node.Transitions {
			if seen[transition] {
				continue
			}
			seen[transition] = true
			if err := forkJoinWalk(g, g.Node(transition), st, okTo, ancestor); err != nil {
				return err
			}
		}
		return nil

	case workflow.KindFork:
		st.forks = append(st.forks, node.Name)
		// duplicate path targets are legal only when they converge on a
		// join or kill node
		for i, a := range node.Transitions {
			target := g.Node(a)
			if target.Kind == workflow.KindJoin || target.Kind == workflow.KindKill {
				continue
			}
			for _, b := range node.Transitions[i+1:] {
				if a == b {
					return workflow.Errorf(workflow.ErrCodeForkDuplicateTarget,
						"fork %q routes to node %q more than once", node.Name, a)
				}
			}
		}
		seen := make(map[string]bool, len(node.Transitions))
		for _, transition := range node.Transitions {
			if seen[transition] {
				continue
			}
			seen[transition] = true
			if err := forkJoinWalk(g, g.Node(transition), st, okTo, topDecision); err != nil {
				return err
			}
		}
		st.forks = st.forks[:len(st.forks)-1]
		// a completed fork discharges the innermost open join expectation
		if len(st.joins) > 0 {
			st.joins = st.joins[:len(st.joins)-1]
		}
		return nil

	case workflow.KindJoin:
		if len(st.forks) == 0 {
			return workflow.Errorf(workflow.ErrCodeJoinWithoutFork, "join %q has no fork to match", node.Name)
		}
		if len(st.forks) > len(st.joins) && (len(st.joins) == 0 || st.joins[len(st.joins)-1] != node.Name) {
			st.joins = append(st.joins, node.Name)
		}
		if st.joins[len(st.joins)-1] != node.Name {
			return workflow.Errorf(workflow.ErrCodeJoinForkMismatch,
				"join %q does not match fork %q (expected join %q)",
				node.Name, st.forks[len(st.forks)-1], st.joins[len(st.joins)-1])
		}
		st.joins = st.joins[:len(st.joins)-1]
		currentFork := st.forks[len(st.forks)-1]
		st.forks = st.forks[:len(st.forks)-1]

		// Force okTo false downstream when this join has already been
		// traversed once: the continuation is necessarily re-walked from
		// every sibling branch, and flagging those re-walks as revisits
		// would be a false positive.
		var err error
		if !okTo || st.joinVisited(node.Name) {
			err = forkJoinWalk(g, g.Node(node.Transitions[0]), st, false, topDecision)
		} else {
			st.visitedJoins = append(st.visitedJoins, node.Name)
			err = forkJoinWalk(g, g.Node(node.Transitions[0]), st, true, topDecision)
		}
		if err != nil {
			return err
		}

		// restore the open scope for sibling branches still to be walked
		st.forks = append(st.forks, currentFork)
		st.joins = append(st.joins, node.Name)
		return nil

	case workflow.KindKill:
		return nil

	case workflow.KindEnd:
		if len(st.forks) > 0 {
			parent := st.path[len(st.path)-2]
			return workflow.Errorf(workflow.ErrCodeEndInFork,
				"node %q ends the workflow from %q while fork %q is still open",
				node.Name, parent, st.forks[len(st.forks)-1])
		}
		return nil
	}

	return workflow.Errorf(workflow.ErrCodeParse, "node %q has unexpected kind %v", node.Name, node.Kind)
}
