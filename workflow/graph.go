package workflow

import "sort"

// Graph is a workflow definition compiled into a node graph. It is built and
// mutated exclusively by the parser; once validation succeeds it must be
// treated as read-only, which makes it safe to share across any number of
// concurrent readers without synchronization.
type Graph struct {
	name       string
	definition string
	nodes      map[string]*Node
	start      *Node
}

// NewGraph creates a graph seeded with its start node. name is the
// workflow's declared name and definition the raw source text it was
// compiled from.
func NewGraph(name, definition string, start *Node) *Graph {
	g := &Graph{
		name:       name,
		definition: definition,
		nodes:      make(map[string]*Node),
		start:      start,
	}
	g.nodes[start.Name] = start
	return g
}

// AddNode registers a node under its name. Registering a second node with
// the same name is a definition fault.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.nodes[n.Name]; ok {
		return Errorf(ErrCodeParse, "node %q defined more than once", n.Name)
	}
	g.nodes[n.Name] = n
	return nil
}

// Node returns the node registered under name, or nil.
func (g *Graph) Node(name string) *Node {
	return g.nodes[name]
}

// Start returns the start node.
func (g *Graph) Start() *Node {
	return g.start
}

// Name returns the workflow's declared name.
func (g *Graph) Name() string {
	return g.name
}

// Definition returns the raw definition text the graph was compiled from.
func (g *Graph) Definition() string {
	return g.definition
}

// Len returns the number of registered nodes, the start node included.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NodeNames returns all registered node names in lexical order.
func (g *Graph) NodeNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
