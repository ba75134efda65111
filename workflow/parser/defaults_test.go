package parser

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobflow-io/jobflow/workflow"
)

// confOf reparses the resolved configuration document of a node.
func confOf(t *testing.T, g *workflow.Graph, name string) *etree.Element {
	t.Helper()
	node := g.Node(name)
	require.NotNil(t, node)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(node.Conf))
	return doc.Root()
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return c.Text()
	}
	return ""
}

func configMap(t *testing.T, el *etree.Element) map[string]string {
	t.Helper()
	conf := el.SelectElement("configuration")
	require.NotNil(t, conf)
	m := make(map[string]string)
	for _, prop := range conf.SelectElements("property") {
		m[prop.SelectElement("name").Text()] = prop.SelectElement("value").Text()
	}
	return m
}

func TestDefaults_LocalEndpointsWin(t *testing.T) {
	def := `
<workflow-app name="wf">
  <global>
    <name-node>hdfs://global</name-node>
    <job-tracker>yarn://global</job-tracker>
  </global>
  <start to="a"/>
  <action name="a">
    <map-reduce>
      <name-node>hdfs://local</name-node>
      <job-tracker>yarn://local</job-tracker>
    </map-reduce>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Equal(t, "hdfs://local", childText(conf, "name-node"))
	assert.Equal(t, "yarn://local", childText(conf, "job-tracker"))
}

func TestDefaults_GlobalSectionFills(t *testing.T) {
	def := `
<workflow-app name="wf">
  <global>
    <name-node>hdfs://global</name-node>
    <job-tracker>yarn://global</job-tracker>
  </global>
  <start to="a"/>
  <action name="a">
    <map-reduce/>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Equal(t, "hdfs://global", childText(conf, "name-node"))
	assert.Equal(t, "yarn://global", childText(conf, "job-tracker"))
}

const defBareMapReduce = `
<workflow-app name="wf">
  <start to="a"/>
  <action name="a">
    <map-reduce/>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`

func TestDefaults_SiteDefaultsFill(t *testing.T) {
	p := newTestParser(WithSiteDefaults(SiteDefaults{
		NameNode:   "hdfs://site",
		JobTracker: "yarn://site",
	}))
	g, err := p.ValidateAndParse(defBareMapReduce, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Equal(t, "hdfs://site", childText(conf, "name-node"))
	assert.Equal(t, "yarn://site", childText(conf, "job-tracker"))
}

func TestDefaults_GlobalBeatsSite(t *testing.T) {
	def := `
<workflow-app name="wf">
  <global>
    <name-node>hdfs://global</name-node>
  </global>
  <start to="a"/>
  <action name="a">
    <map-reduce/>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser(WithSiteDefaults(SiteDefaults{
		NameNode:   "hdfs://site",
		JobTracker: "yarn://site",
	}))
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Equal(t, "hdfs://global", childText(conf, "name-node"))
	// the global section itself falls back to the site default
	assert.Equal(t, "yarn://site", childText(conf, "job-tracker"))
}

func TestDefaults_MissingEndpointFails(t *testing.T) {
	p := newTestParser()
	_, err := p.ValidateAndParse(defBareMapReduce, nil)
	require.Error(t, err)
	assert.Equal(t, workflow.ErrCodeMissingDefault, workflow.CodeOf(err))
	assert.Contains(t, err.Error(), "name-node")
}

func TestDefaults_FSNeverGetsJobTracker(t *testing.T) {
	def := `
<workflow-app name="wf">
  <global>
    <name-node>hdfs://global</name-node>
    <job-tracker>yarn://global</job-tracker>
  </global>
  <start to="a"/>
  <action name="a">
    <fs><delete path="/tmp/x"/></fs>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Equal(t, "hdfs://global", childText(conf, "name-node"))
	assert.Nil(t, conf.SelectElement("job-tracker"))
}

func TestDefaults_FSExemptFromMissingNameNode(t *testing.T) {
	def := `
<workflow-app name="wf">
  <start to="a"/>
  <action name="a">
    <fs><delete path="/tmp/x"/></fs>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	_, err := p.ValidateAndParse(def, nil)
	assert.NoError(t, err)
}

func TestDefaults_SubWorkflowExempt(t *testing.T) {
	def := `
<workflow-app name="wf">
  <start to="a"/>
  <action name="a">
    <sub-workflow><app-path>/apps/child</app-path></sub-workflow>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Nil(t, conf.SelectElement("name-node"))
	assert.Nil(t, conf.SelectElement("job-tracker"))
}

func TestDefaults_ConfigurationMerge(t *testing.T) {
	def := `
<workflow-app name="wf">
  <global>
    <name-node>hdfs://global</name-node>
    <job-tracker>yarn://global</job-tracker>
    <configuration>
      <property><name>b</name><value>global-b</value></property>
      <property><name>c</name><value>global-c</value></property>
    </configuration>
  </global>
  <start to="a"/>
  <action name="a">
    <map-reduce>
      <configuration>
        <property><name>c</name><value>local-c</value></property>
      </configuration>
    </map-reduce>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser(WithConfigDefault(workflow.Properties{
		"a": "site-a",
		"b": "site-b",
	}))
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a": "site-a",
		"b": "global-b",
		"c": "local-c",
	}, configMap(t, confOf(t, g, "a")))
}

func TestDefaults_SharedConfigAlwaysPresent(t *testing.T) {
	p := newTestParser(WithSiteDefaults(SiteDefaults{
		NameNode:   "hdfs://site",
		JobTracker: "yarn://site",
	}))
	g, err := p.ValidateAndParse(defBareMapReduce, nil)
	require.NoError(t, err)

	conf := confOf(t, g, "a").SelectElement("configuration")
	require.NotNil(t, conf)
	assert.Empty(t, conf.SelectElements("property"))
}

func TestDefaults_NonSharedTypeUntouched(t *testing.T) {
	// the test registry's shell type opted out of shared configuration
	def := `
<workflow-app name="wf">
  <global>
    <configuration>
      <property><name>k</name><value>v</value></property>
    </configuration>
  </global>
  <start to="a"/>
  <action name="a">
    <shell><exec>echo</exec></shell>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	assert.Nil(t, confOf(t, g, "a").SelectElement("configuration"))
}

func TestDefaults_JobXMLMerge(t *testing.T) {
	def := `
<workflow-app name="wf">
  <global>
    <name-node>hdfs://global</name-node>
    <job-tracker>yarn://global</job-tracker>
    <job-xml>shared.xml</job-xml>
    <job-xml>extra.xml</job-xml>
  </global>
  <start to="a"/>
  <action name="a">
    <map-reduce>
      <job-xml>shared.xml</job-xml>
    </map-reduce>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	g, err := p.ValidateAndParse(def, nil)
	require.NoError(t, err)

	var refs []string
	for _, jx := range confOf(t, g, "a").SelectElements("job-xml") {
		refs = append(refs, jx.Text())
	}
	assert.Equal(t, []string{"shared.xml", "extra.xml"}, refs)
}

func TestDefaults_PropagateConfiguration(t *testing.T) {
	def := `
<workflow-app name="parent">
  <global>
    <name-node>hdfs://global</name-node>
    <job-tracker>yarn://global</job-tracker>
    <configuration>
      <property><name>k</name><value>v</value></property>
    </configuration>
  </global>
  <start to="a"/>
  <action name="a">
    <sub-workflow>
      <app-path>/apps/child</app-path>
      <propagate-configuration/>
    </sub-workflow>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	props := workflow.Properties{}
	_, err := p.ValidateAndParse(def, props)
	require.NoError(t, err)

	blob := props.Get(PropGlobalBlob)
	require.NotEmpty(t, blob)

	gd, err := decodeGlobalDefaults(blob)
	require.NoError(t, err)
	assert.Equal(t, "hdfs://global", gd.NameNode)
	assert.Equal(t, "yarn://global", gd.JobTracker)
	assert.Equal(t, map[string]string{"k": "v"}, gd.Configuration)
}

func TestDefaults_NoPropagationWithoutElement(t *testing.T) {
	def := `
<workflow-app name="parent">
  <global>
    <name-node>hdfs://global</name-node>
  </global>
  <start to="a"/>
  <action name="a">
    <sub-workflow><app-path>/apps/child</app-path></sub-workflow>
    <ok to="done"/>
    <error to="fail"/>
  </action>
  <kill name="fail"><message>failed</message></kill>
  <end name="done"/>
</workflow-app>`
	p := newTestParser()
	props := workflow.Properties{}
	_, err := p.ValidateAndParse(def, props)
	require.NoError(t, err)
	assert.Empty(t, props.Get(PropGlobalBlob))
}

func TestDefaults_InheritedBlobFillsChild(t *testing.T) {
	blob, err := encodeGlobalDefaults(&GlobalDefaults{
		NameNode:   "hdfs://parent",
		JobTracker: "yarn://parent",
	})
	require.NoError(t, err)

	p := newTestParser()
	g, err := p.ValidateAndParse(defBareMapReduce, workflow.Properties{PropGlobalBlob: blob})
	require.NoError(t, err)

	conf := confOf(t, g, "a")
	assert.Equal(t, "hdfs://parent", childText(conf, "name-node"))
	assert.Equal(t, "yarn://parent", childText(conf, "job-tracker"))
}
