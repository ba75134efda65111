package parser

import (
	"github.com/beevik/etree"

	"github.com/jobflow-io/jobflow/workflow"
)

// Element vocabulary of the definition format.
const (
	elemStart    = "start"
	elemEnd      = "end"
	elemKill     = "kill"
	elemFork     = "fork"
	elemJoin     = "join"
	elemDecision = "decision"
	elemAction   = "action"

	elemGlobal      = "global"
	elemParameters  = "parameters"
	elemCredentials = "credentials"
	elemSLA         = "info"

	attrName          = "name"
	attrTo            = "to"
	attrCred          = "cred"
	attrRetryMax      = "retry-max"
	attrRetryInterval = "retry-interval"

	elemPath      = "path"
	attrPathStart = "start"

	elemOk    = "ok"
	elemError = "error"

	elemSwitch  = "switch"
	elemCase    = "case"
	elemDefault = "default"

	elemMessage = "message"

	elemNameNode      = "name-node"
	elemJobTracker    = "job-tracker"
	elemJobXML        = "job-xml"
	elemConfiguration = "configuration"
	elemProperty      = "property"
	elemPropertyName  = "name"
	elemPropertyValue = "value"

	elemPropagateConf = "propagate-configuration"
)

// Action types with hardcoded defaults exemptions: sub-workflow delegation
// inherits endpoints from the child definition, and fs only ever touches the
// storage endpoint.
const (
	actionTypeSubWorkflow = "sub-workflow"
	actionTypeFS          = "fs"
)

// builtDefinition is the graph-builder output handed to the defaults
// resolver: the unvalidated graph, the action nodes in document order, and
// the raw <global> element if one was declared.
type builtDefinition struct {
	graph       *workflow.Graph
	actionOrder []string
	globalEl    *etree.Element
}

// build dispatches over the top-level elements of the definition and
// registers one node per declared element. Transitions stay unresolved
// names; nothing is proven about the graph yet.
func (p *Parser) build(root *etree.Element, definition string, props workflow.Properties) (*builtDefinition, error) {
	built := &builtDefinition{}
	var g *workflow.Graph

	for _, el := range root.ChildElements() {
		if el.Tag == elemStart {
			if g != nil {
				return nil, workflow.Errorf(workflow.ErrCodeParse, "definition declares more than one start element")
			}
			g = workflow.NewGraph(root.SelectAttrValue(attrName, ""), definition,
				workflow.NewStartNode(el.SelectAttrValue(attrTo, "")))
			built.graph = g
			continue
		}
		if g == nil {
			// metadata sections may legally precede start
			switch el.Tag {
			case elemGlobal, elemParameters, elemCredentials, elemSLA:
			default:
				return nil, workflow.Errorf(workflow.ErrCodeParse, "element %q declared before the start element", el.Tag)
			}
		}

		switch el.Tag {
		case elemEnd:
			if err := g.AddNode(workflow.NewEndNode(el.SelectAttrValue(attrName, ""))); err != nil {
				return nil, err
			}

		case elemKill:
			message := ""
			if msgEl := el.SelectElement(elemMessage); msgEl != nil {
				message = msgEl.Text()
			}
			if err := g.AddNode(workflow.NewKillNode(el.SelectAttrValue(attrName, ""), message)); err != nil {
				return nil, err
			}

		case elemFork:
			var paths []string
			for _, pathEl := range el.SelectElements(elemPath) {
				paths = append(paths, pathEl.SelectAttrValue(attrPathStart, ""))
			}
			if err := g.AddNode(workflow.NewForkNode(el.SelectAttrValue(attrName, ""), paths)); err != nil {
				return nil, err
			}

		case elemJoin:
			if err := g.AddNode(workflow.NewJoinNode(el.SelectAttrValue(attrName, ""), el.SelectAttrValue(attrTo, ""))); err != nil {
				return nil, err
			}

		case elemDecision:
			node, err := buildDecisionNode(el)
			if err != nil {
				return nil, err
			}
			if err := g.AddNode(node); err != nil {
				return nil, err
			}

		case elemAction:
			node, err := p.buildActionNode(el, props)
			if err != nil {
				return nil, err
			}
			if err := g.AddNode(node); err != nil {
				return nil, err
			}
			built.actionOrder = append(built.actionOrder, node.Name)

		case elemGlobal:
			built.globalEl = el

		case elemParameters, elemCredentials, elemSLA:
			// consumed by external collaborators, no node produced

		default:
			return nil, workflow.Errorf(workflow.ErrCodeUnknownElement, "unexpected element %q in definition", el.Tag)
		}
	}

	if g == nil {
		return nil, workflow.Errorf(workflow.ErrCodeParse, "definition has no start element")
	}
	return built, nil
}

// buildDecisionNode collects the ordered case branches plus the trailing
// default branch and keeps the raw switch statement for the runtime
// predicate evaluator.
func buildDecisionNode(el *etree.Element) (*workflow.Node, error) {
	name := el.SelectAttrValue(attrName, "")
	sw := el.SelectElement(elemSwitch)
	if sw == nil {
		return nil, workflow.Errorf(workflow.ErrCodeParse, "decision %q has no switch element", name)
	}
	var transitions []string
	for _, caseEl := range sw.SelectElements(elemCase) {
		transitions = append(transitions, caseEl.SelectAttrValue(attrTo, ""))
	}
	defaultEl := sw.SelectElement(elemDefault)
	if defaultEl == nil {
		return nil, workflow.Errorf(workflow.ErrCodeParse, "decision %q has no default branch", name)
	}
	transitions = append(transitions, defaultEl.SelectAttrValue(attrTo, ""))

	conf, err := elementString(sw)
	if err != nil {
		return nil, err
	}
	return workflow.NewDecisionNode(name, conf, transitions), nil
}

// buildActionNode reads the ok/error transition markers and the single
// configuration child, and resolves the two retry attributes through the
// expression resolver.
func (p *Parser) buildActionNode(el *etree.Element, props workflow.Properties) (*workflow.Node, error) {
	name := el.SelectAttrValue(attrName, "")
	var okTo, errorTo string
	var confEl *etree.Element
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case elemOk:
			okTo = child.SelectAttrValue(attrTo, "")
		case elemError:
			errorTo = child.SelectAttrValue(attrTo, "")
		case elemSLA, elemCredentials:
			// consumed by external collaborators
		default:
			confEl = child
		}
	}
	if confEl == nil {
		return nil, workflow.Errorf(workflow.ErrCodeParse, "action %q has no configuration element", name)
	}

	retryMax, err := p.resolveAttr(el.SelectAttrValue(attrRetryMax, ""), name, attrRetryMax, props)
	if err != nil {
		return nil, err
	}
	retryInterval, err := p.resolveAttr(el.SelectAttrValue(attrRetryInterval, ""), name, attrRetryInterval, props)
	if err != nil {
		return nil, err
	}

	conf, err := elementString(confEl)
	if err != nil {
		return nil, err
	}
	return workflow.NewActionNode(name, conf, okTo, errorTo,
		el.SelectAttrValue(attrCred, ""), retryMax, retryInterval), nil
}

// resolveAttr runs one retry attribute through the expression resolver.
func (p *Parser) resolveAttr(value, node, attr string, props workflow.Properties) (string, error) {
	if value == "" {
		return "", nil
	}
	resolved, err := p.resolver.Resolve(value, props)
	if err != nil {
		return "", workflow.WrapError(workflow.ErrCodeUnknownElement, err, "action %q: unresolvable %s attribute", node, attr)
	}
	return resolved, nil
}

// elementString serializes a subtree standalone, detached from its document.
func elementString(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return "", workflow.WrapError(workflow.ErrCodeParse, err, "serialize %s element", el.Tag)
	}
	return s, nil
}
