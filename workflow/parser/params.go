package parser

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/jobflow-io/jobflow/workflow"
)

// verifyParameters checks the optional <parameters> section: every declared
// property must have a value, either a <value> default in the definition or
// an entry in the job properties. Runs on the raw element tree before graph
// construction.
func verifyParameters(root *etree.Element, props workflow.Properties) error {
	params := root.SelectElement(elemParameters)
	if params == nil {
		return nil
	}
	var missing []string
	for _, prop := range params.SelectElements(elemProperty) {
		name := ""
		if nameEl := prop.SelectElement(elemPropertyName); nameEl != nil {
			name = strings.TrimSpace(nameEl.Text())
		}
		if name == "" {
			return workflow.Errorf(workflow.ErrCodeParameters, "parameter declared without a name")
		}
		if _, ok := props[name]; ok {
			continue
		}
		if prop.SelectElement(elemPropertyValue) != nil {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return workflow.Errorf(workflow.ErrCodeParameters, "missing required parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}
