package parser

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/jobflow-io/jobflow/internal/metrics"
	"github.com/jobflow-io/jobflow/workflow"
	"github.com/jobflow-io/jobflow/workflow/expr"
)

// Job property keys read by the parser.
const (
	// PropValidateForkJoin is the job-level switch for fork/join topology
	// validation. It runs only when this and the process-wide flag are both
	// true; both default to true.
	PropValidateForkJoin = "jobflow.wf.validate.fork.join"

	// PropGlobalBlob carries an encoded GlobalDefaults block between
	// cooperating parses (parent workflow to sub-workflow).
	PropGlobalBlob = "jobflow.wf.global"
)

// SchemaValidator checks a raw definition against a markup schema before
// parsing. It is an optional boundary service; any rejection aborts the
// parse with a schema-violation fault.
type SchemaValidator interface {
	Validate(definition string) error
}

// ActionRegistry answers whether an action type is supported and which
// execution defaults it needs. *workflow.Registry satisfies it.
type ActionRegistry interface {
	Lookup(name string) (workflow.ActionType, bool)
}

// SiteDefaults are the process-wide endpoint defaults, the lowest tier of
// the defaults precedence. Empty fields mean unset.
type SiteDefaults struct {
	NameNode   string
	JobTracker string
}

// Parser compiles a textual workflow definition into a validated
// workflow.Graph. A Parser holds no per-parse state and is safe for
// concurrent use.
type Parser struct {
	registry      ActionRegistry
	schema        SchemaValidator
	resolver      expr.Resolver
	site          SiteDefaults
	configDefault workflow.Properties
	forkJoin      bool
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		p.logger = logger.With(zap.String("component", "workflow_parser"))
	}
}

// WithSchemaValidator sets the optional schema validator.
func WithSchemaValidator(s SchemaValidator) Option {
	return func(p *Parser) { p.schema = s }
}

// WithResolver replaces the expression resolver applied to the retry
// attributes. The default is expr.PropertyResolver.
func WithResolver(r expr.Resolver) Option {
	return func(p *Parser) { p.resolver = r }
}

// WithSiteDefaults sets the process-wide endpoint defaults.
func WithSiteDefaults(site SiteDefaults) Option {
	return func(p *Parser) { p.site = site }
}

// WithConfigDefault sets the site-wide default configuration, the lowest
// layer of the shared-configuration merge.
func WithConfigDefault(props workflow.Properties) Option {
	return func(p *Parser) { p.configDefault = props }
}

// WithForkJoinValidation sets the process-wide fork/join validation flag.
func WithForkJoinValidation(enabled bool) Option {
	return func(p *Parser) { p.forkJoin = enabled }
}

// WithMetrics attaches a metrics collector observing parse outcomes.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Parser) { p.metrics = c }
}

// New creates a Parser bound to an action-type registry.
func New(registry ActionRegistry, opts ...Option) *Parser {
	p := &Parser{
		registry: registry,
		resolver: expr.PropertyResolver{},
		forkJoin: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.site.NameNode = strings.TrimSpace(p.site.NameNode)
	p.site.JobTracker = strings.TrimSpace(p.site.JobTracker)
	return p
}

// ValidateAndParse compiles definition into a validated graph. props is the
// job-level configuration; it may be nil. On failure the returned error is a
// *workflow.Error carrying the fault code, and the graph is discarded.
func (p *Parser) ValidateAndParse(definition string, props workflow.Properties) (*workflow.Graph, error) {
	started := time.Now()
	g, err := p.validateAndParse(definition, props)
	if p.metrics != nil {
		p.metrics.ObserveParse(err, time.Since(started))
	}
	return g, err
}

func (p *Parser) validateAndParse(definition string, props workflow.Properties) (*workflow.Graph, error) {
	if p.schema != nil {
		if err := p.schema.Validate(definition); err != nil {
			return nil, workflow.WrapError(workflow.ErrCodeSchema, err, "definition rejected by schema")
		}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(definition); err != nil {
		return nil, workflow.WrapError(workflow.ErrCodeParse, err, "malformed definition markup")
	}
	root := doc.Root()
	if root == nil {
		return nil, workflow.Errorf(workflow.ErrCodeParse, "definition has no root element")
	}

	if err := verifyParameters(root, props); err != nil {
		return nil, err
	}

	built, err := p.build(root, definition, props)
	if err != nil {
		return nil, err
	}

	globals, err := p.resolveGlobalSection(built.globalEl, props)
	if err != nil {
		return nil, err
	}
	if err := p.resolveDefaults(built, globals, props); err != nil {
		return nil, err
	}

	forks, joins, err := p.validateStructure(built.graph)
	if err != nil {
		return nil, err
	}

	if p.forkJoin && props.GetBool(PropValidateForkJoin, true) {
		if err := validateForkJoin(built.graph, forks, joins); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("workflow definition validated",
		zap.String("workflow", built.graph.Name()),
		zap.Int("nodes", built.graph.Len()),
		zap.Int("forks", len(forks)),
	)
	return built.graph, nil
}

// resolveGlobalSection builds the GlobalDefaults for this parse: the
// workflow's own <global> element when present, else a pre-resolved block
// decoded from the job properties, else none.
func (p *Parser) resolveGlobalSection(globalEl *etree.Element, props workflow.Properties) (*GlobalDefaults, error) {
	if globalEl != nil {
		return parseGlobalSection(globalEl)
	}
	if blob := props.Get(PropGlobalBlob); blob != "" {
		return decodeGlobalDefaults(blob)
	}
	return nil, nil
}
