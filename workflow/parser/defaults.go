package parser

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/jobflow-io/jobflow/workflow"
)

// GlobalDefaults is the workflow-level defaults block: endpoint addresses,
// shared job-xml references, and a shared configuration map inherited by
// action nodes unless locally overridden. It is consumed by the defaults
// resolver and discarded; it is not part of the compiled graph.
type GlobalDefaults struct {
	NameNode      string            `json:"name_node,omitempty"`
	JobTracker    string            `json:"job_tracker,omitempty"`
	JobXMLs       []string          `json:"job_xmls,omitempty"`
	Configuration map[string]string `json:"configuration,omitempty"`
}

// parseGlobalSection reads a <global> element into GlobalDefaults.
func parseGlobalSection(el *etree.Element) (*GlobalDefaults, error) {
	gd := &GlobalDefaults{}
	if nn := el.SelectElement(elemNameNode); nn != nil {
		gd.NameNode = strings.TrimSpace(nn.Text())
	}
	if jt := el.SelectElement(elemJobTracker); jt != nil {
		gd.JobTracker = strings.TrimSpace(jt.Text())
	}
	for _, jx := range el.SelectElements(elemJobXML) {
		gd.JobXMLs = append(gd.JobXMLs, jx.Text())
	}
	if conf := el.SelectElement(elemConfiguration); conf != nil {
		m, err := parseConfiguration(conf)
		if err != nil {
			return nil, err
		}
		gd.Configuration = m
	}
	return gd, nil
}

// parseConfiguration reads <property><name>/<value> children into a map,
// last write winning on duplicate names.
func parseConfiguration(el *etree.Element) (map[string]string, error) {
	m := make(map[string]string)
	for _, prop := range el.SelectElements(elemProperty) {
		nameEl := prop.SelectElement(elemPropertyName)
		if nameEl == nil || strings.TrimSpace(nameEl.Text()) == "" {
			return nil, workflow.Errorf(workflow.ErrCodeParse, "configuration property without a name")
		}
		value := ""
		if valueEl := prop.SelectElement(elemPropertyValue); valueEl != nil {
			value = valueEl.Text()
		}
		m[strings.TrimSpace(nameEl.Text())] = value
	}
	return m, nil
}

// resolveDefaults injects missing endpoint and configuration values into
// every action node's configuration blob, in document order, using the
// precedence node-local > global section > site default. It must run before
// validation: validation checks the final, resolved action documents.
func (p *Parser) resolveDefaults(built *builtDefinition, gd *GlobalDefaults, props workflow.Properties) error {
	// The global section itself takes site defaults and never fails on a
	// missing endpoint.
	if gd != nil {
		if gd.NameNode == "" {
			gd.NameNode = p.site.NameNode
		}
		if gd.JobTracker == "" {
			gd.JobTracker = p.site.JobTracker
		}
	}

	propagated := false
	for _, name := range built.actionOrder {
		node := built.graph.Node(name)
		doc := etree.NewDocument()
		if err := doc.ReadFromString(node.Conf); err != nil {
			return workflow.WrapError(workflow.ErrCodeParse, err, "action %q configuration", name)
		}
		confEl := doc.Root()
		actionType := confEl.Tag

		at, ok := p.registry.Lookup(actionType)
		if !ok {
			return workflow.Errorf(workflow.ErrCodeUnsupportedAction, "action %q uses unsupported type %q", name, actionType)
		}

		if err := p.resolveEndpoints(confEl, name, actionType, at, gd); err != nil {
			return err
		}
		if at.SupportsSharedConfig {
			mergeJobXMLs(confEl, gd)
			if err := p.mergeConfiguration(confEl, gd); err != nil {
				return err
			}
		}

		if actionType == actionTypeSubWorkflow && !propagated && gd != nil && props != nil &&
			confEl.SelectElement(elemPropagateConf) != nil {
			blob, err := encodeGlobalDefaults(gd)
			if err != nil {
				return err
			}
			props.Set(PropGlobalBlob, blob)
			propagated = true
		}

		conf, err := elementString(confEl)
		if err != nil {
			return err
		}
		node.Conf = conf
	}
	return nil
}

// resolveEndpoints fills the name-node and job-tracker children when the
// action type needs them. Sub-workflow and fs actions never fail on a
// missing default: sub-workflow inherits from the child definition, and fs
// only ever takes the storage endpoint.
func (p *Parser) resolveEndpoints(confEl *etree.Element, name, actionType string, at workflow.ActionType, gd *GlobalDefaults) error {
	needsEndpoints := actionType == actionTypeSubWorkflow || actionType == actionTypeFS || at.RequiresEndpointDefaults
	if !needsEndpoints {
		return nil
	}

	if confEl.SelectElement(elemNameNode) == nil {
		switch {
		case gd != nil && gd.NameNode != "":
			confEl.CreateElement(elemNameNode).SetText(gd.NameNode)
		case p.site.NameNode != "":
			confEl.CreateElement(elemNameNode).SetText(p.site.NameNode)
		case actionType != actionTypeSubWorkflow && actionType != actionTypeFS:
			return workflow.Errorf(workflow.ErrCodeMissingDefault, "action %q: no %s defined", name, elemNameNode)
		}
	}

	if actionType != actionTypeFS && confEl.SelectElement(elemJobTracker) == nil {
		switch {
		case gd != nil && gd.JobTracker != "":
			confEl.CreateElement(elemJobTracker).SetText(gd.JobTracker)
		case p.site.JobTracker != "":
			confEl.CreateElement(elemJobTracker).SetText(p.site.JobTracker)
		case actionType != actionTypeSubWorkflow:
			return workflow.Errorf(workflow.ErrCodeMissingDefault, "action %q: no %s defined", name, elemJobTracker)
		}
	}
	return nil
}

// mergeJobXMLs appends global job-xml references the action does not already
// carry, deduplicated by exact text, after the node-local entries.
func mergeJobXMLs(confEl *etree.Element, gd *GlobalDefaults) {
	if gd == nil || len(gd.JobXMLs) == 0 {
		return
	}
	existing := make(map[string]bool)
	for _, jx := range confEl.SelectElements(elemJobXML) {
		existing[jx.Text()] = true
	}
	for _, jx := range gd.JobXMLs {
		if !existing[jx] {
			confEl.CreateElement(elemJobXML).SetText(jx)
		}
	}
}

// mergeConfiguration rebuilds the action's <configuration> element from
// three layers, each overriding the keys of the previous: site default
// config, global section config, node-local config. A shared-config action
// always ends up with a configuration element, even an empty one.
func (p *Parser) mergeConfiguration(confEl *etree.Element, gd *GlobalDefaults) error {
	type property struct{ name, value string }
	var merged []property
	index := make(map[string]int)
	add := func(name, value string) {
		if i, ok := index[name]; ok {
			merged[i].value = value
			return
		}
		index[name] = len(merged)
		merged = append(merged, property{name, value})
	}

	for _, key := range sortedKeys(p.configDefault) {
		add(key, p.configDefault[key])
	}
	if gd != nil {
		for _, key := range sortedKeys(gd.Configuration) {
			add(key, gd.Configuration[key])
		}
	}

	existing := confEl.SelectElement(elemConfiguration)
	if existing != nil {
		for _, prop := range existing.SelectElements(elemProperty) {
			nameEl := prop.SelectElement(elemPropertyName)
			if nameEl == nil || strings.TrimSpace(nameEl.Text()) == "" {
				return workflow.Errorf(workflow.ErrCodeParse, "configuration property without a name")
			}
			value := ""
			if valueEl := prop.SelectElement(elemPropertyValue); valueEl != nil {
				value = valueEl.Text()
			}
			add(strings.TrimSpace(nameEl.Text()), value)
		}
		confEl.RemoveChild(existing)
	}

	out := confEl.CreateElement(elemConfiguration)
	for _, prop := range merged {
		propEl := out.CreateElement(elemProperty)
		propEl.CreateElement(elemPropertyName).SetText(prop.name)
		propEl.CreateElement(elemPropertyValue).SetText(prop.value)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
