package parser

import (
	"regexp"

	"github.com/beevik/etree"

	"github.com/jobflow-io/jobflow/workflow"
)

// nodeNameRE is the platform node-naming rule: a letter or underscore
// followed by up to 127 letters, digits, hyphens or underscores.
var nodeNameRE = regexp.MustCompile(`^[a-zA-Z_][\-_a-zA-Z0-9]{0,127}$`)

type visitStatus int

const (
	statusVisiting visitStatus = iota + 1
	statusVisited
)

// validateStructure walks the graph depth-first from the start node and
// proves, in one linear pass: every node name is a valid identifier, every
// action type is supported, every transition resolves, and no cycle is
// reachable. It returns the fork and join node names encountered, in visit
// order, for the fork/join precondition check.
func (p *Parser) validateStructure(g *workflow.Graph) (forks, joins []string, err error) {
	w := &structuralWalk{
		registry:  p.registry,
		graph:     g,
		traversed: map[string]visitStatus{g.Start().Name: statusVisiting},
	}
	if err := w.visit(g.Start()); err != nil {
		return nil, nil, err
	}
	return w.forks, w.joins, nil
}

type structuralWalk struct {
	registry  ActionRegistry
	graph     *workflow.Graph
	traversed map[string]visitStatus
	forks     []string
	joins     []string
}

// visit recurses depth-first. Recursion depth is bounded by the node count:
// every call first marks a previously unvisited name as visiting, and a
// visiting target is a cycle fault.
func (w *structuralWalk) visit(node *workflow.Node) error {
	if node.Kind != workflow.KindStart && !nodeNameRE.MatchString(node.Name) {
		return workflow.Errorf(workflow.ErrCodeInvalidName, "node name %q is not a valid identifier", node.Name)
	}

	if node.Kind == workflow.KindAction {
		actionType, err := actionTypeOf(node)
		if err != nil {
			return err
		}
		if _, ok := w.registry.Lookup(actionType); !ok {
			return workflow.Errorf(workflow.ErrCodeUnsupportedAction, "action %q uses unsupported type %q", node.Name, actionType)
		}
	}

	switch node.Kind {
	case workflow.KindFork:
		w.forks = append(w.forks, node.Name)
	case workflow.KindJoin:
		w.joins = append(w.joins, node.Name)
	case workflow.KindEnd, workflow.KindKill:
		w.traversed[node.Name] = statusVisited
		return nil
	}

	for _, transition := range node.Transitions {
		target := w.graph.Node(transition)
		if target == nil {
			return workflow.Errorf(workflow.ErrCodeDanglingTransition, "node %q transitions to undefined node %q", node.Name, transition)
		}
		switch w.traversed[transition] {
		case statusVisiting:
			return workflow.Errorf(workflow.ErrCodeCycle, "cycle detected closing at node %q", transition)
		case statusVisited:
			continue
		}
		w.traversed[transition] = statusVisiting
		if err := w.visit(target); err != nil {
			return err
		}
	}
	w.traversed[node.Name] = statusVisited
	return nil
}

// actionTypeOf parses the action configuration blob and returns its root
// tag, which names the action type.
func actionTypeOf(node *workflow.Node) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(node.Conf); err != nil {
		return "", workflow.WrapError(workflow.ErrCodeParse, err, "action %q configuration", node.Name)
	}
	root := doc.Root()
	if root == nil {
		return "", workflow.Errorf(workflow.ErrCodeParse, "action %q has an empty configuration", node.Name)
	}
	return root.Tag, nil
}
