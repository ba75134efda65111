package workflow

// NodeKind identifies the variant of a workflow node. The set is closed:
// every traversal in this module switches exhaustively over these values.
type NodeKind int

const (
	// KindStart is the single entry node of a workflow.
	KindStart NodeKind = iota
	// KindAction executes a unit of work with an ok and an error transition.
	KindAction
	// KindDecision selects exactly one of its branches at runtime.
	KindDecision
	// KindFork splits execution into parallel paths.
	KindFork
	// KindJoin reconverges the paths opened by a matching fork.
	KindJoin
	// KindKill terminates the workflow with a failure message.
	KindKill
	// KindEnd terminates the workflow successfully.
	KindEnd
)

// String returns the element-vocabulary name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindAction:
		return "action"
	case KindDecision:
		return "decision"
	case KindFork:
		return "fork"
	case KindJoin:
		return "join"
	case KindKill:
		return "kill"
	case KindEnd:
		return "end"
	}
	return "unknown"
}

// StartName is the reserved name under which the start node is registered.
// It is not a legal user-facing node name, so it can never collide.
const StartName = ":start:"

// Node is a single node of a workflow graph. It is a tagged union over
// NodeKind: which fields are meaningful depends on Kind. Transitions hold
// target node names in declaration order; they are resolved to nodes only
// during validation.
type Node struct {
	Kind NodeKind
	Name string

	// Transitions are ordered outgoing target names.
	// Start and Join carry exactly one, Action carries exactly two
	// (ok at index 0, error at index 1), Decision carries its case
	// branches followed by the default branch, Fork carries one per
	// parallel path. End and Kill carry none.
	Transitions []string

	// Conf is the variant-specific payload: the action configuration
	// document for actions, the raw switch statement for decisions, and
	// the kill message for kill nodes.
	Conf string

	// Cred names the credential set an action runs under, if any.
	Cred string

	// RetryMax and RetryInterval are the resolved retry attributes of an
	// action. They are carried verbatim; interpretation happens at run time.
	RetryMax      string
	RetryInterval string
}

// NewStartNode returns the start node transitioning to the named first node.
func NewStartNode(to string) *Node {
	return &Node{Kind: KindStart, Name: StartName, Transitions: []string{to}}
}

// NewEndNode returns a terminal end node.
func NewEndNode(name string) *Node {
	return &Node{Kind: KindEnd, Name: name}
}

// NewKillNode returns a terminal kill node carrying a failure message.
func NewKillNode(name, message string) *Node {
	return &Node{Kind: KindKill, Name: name, Conf: message}
}

// NewForkNode returns a fork node with one transition per parallel path.
func NewForkNode(name string, paths []string) *Node {
	return &Node{Kind: KindFork, Name: name, Transitions: paths}
}

// NewJoinNode returns a join node continuing to the named node.
func NewJoinNode(name, to string) *Node {
	return &Node{Kind: KindJoin, Name: name, Transitions: []string{to}}
}

// NewDecisionNode returns a decision node. transitions holds the case branch
// targets in order, with the default branch last; conf carries the raw switch
// statement for the runtime predicate evaluator.
func NewDecisionNode(name, conf string, transitions []string) *Node {
	return &Node{Kind: KindDecision, Name: name, Conf: conf, Transitions: transitions}
}

// NewActionNode returns an action node. conf carries the action configuration
// document whose root tag names the action type.
func NewActionNode(name, conf, okTo, errorTo, cred, retryMax, retryInterval string) *Node {
	return &Node{
		Kind:          KindAction,
		Name:          name,
		Conf:          conf,
		Transitions:   []string{okTo, errorTo},
		Cred:          cred,
		RetryMax:      retryMax,
		RetryInterval: retryInterval,
	}
}

// OkTo returns the success transition of an action node.
func (n *Node) OkTo() string {
	return n.Transitions[0]
}

// ErrorTo returns the error transition of an action node.
func (n *Node) ErrorTo() string {
	return n.Transitions[1]
}
