// Package di wires the application together with manual dependency
// injection: audit persistence, provider gateway, tool catalog, case
// and orchestrator, in dependency order.
package di

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/opsmedic/opsmedic/internal/adapter/gateway/provider"
	"github.com/opsmedic/opsmedic/internal/adapter/toolprovider"
	appconfig "github.com/opsmedic/opsmedic/internal/app/config"
	"github.com/opsmedic/opsmedic/internal/application/port/output"
	"github.com/opsmedic/opsmedic/internal/application/usecase/orchestrate"
	"github.com/opsmedic/opsmedic/internal/domain/model/conversation"
	"github.com/opsmedic/opsmedic/internal/domain/model/workcase"
	"github.com/opsmedic/opsmedic/internal/domain/tool"
	"github.com/opsmedic/opsmedic/internal/infrastructure/persistence/file"
	"github.com/opsmedic/opsmedic/internal/infrastructure/persistence/memory"
	"github.com/opsmedic/opsmedic/internal/infrastructure/persistence/sqlite"
)

// Logger is the leveled logger the container threads through the
// layers. The CLI's logger satisfies it.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// defaultSystemPrompt frames the model as a cautious host medic. The
// workflow rules it describes are advisory for the model; the case
// state machine enforces them regardless.
const defaultSystemPrompt = `You are OpsMedic, a host diagnose-and-repair assistant.

Work a case through stages, moving between them with the
update_workflow_stage tool:
1. AUDIT: investigate with the read-only tools (host_info, disk_usage,
   list_processes). Never guess what you can measure.
2. ANALYSIS: once you have enough evidence, state the most likely root
   cause.
3. PLAN_READY: present a numbered repair plan. Each step names exactly
   one repair action.
4. The operator approves steps with "GO REPAIR: <steps>". Only then may
   you call repair tools (clean_temp_files, restart_service), one step
   at a time, passing the step number in the "step" argument. Never
   call a repair tool without an approved step.
5. COMPLETED when the problem is resolved, FAILED when it cannot be.

If a tool result starts with DENIED or ERROR, explain it to the
operator instead of retrying blindly.`

// Container is the DI container that holds all dependencies
type Container struct {
	// Infrastructure Layer
	db        *sql.DB
	auditSink output.AuditSink

	// Adapter Layer
	gateway output.ProviderGateway
	catalog *tool.Catalog

	// Domain Layer
	workCase *workcase.Case
	session  *conversation.Session

	// Application Layer
	orchestrator *orchestrate.Orchestrator

	config appconfig.Config
	logger Logger
}

// NewContainer creates and initializes the DI container
func NewContainer(cfg appconfig.Config, logger Logger) (*Container, error) {
	c := &Container{config: cfg, logger: logger}

	if err := c.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	if err := c.initializeDomain(); err != nil {
		return nil, fmt.Errorf("failed to initialize domain: %w", err)
	}
	if err := c.initializeAdapters(); err != nil {
		return nil, fmt.Errorf("failed to initialize adapters: %w", err)
	}
	if err := c.initializeApplication(); err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return c, nil
}

// initializeInfrastructure selects and opens the audit backend
func (c *Container) initializeInfrastructure() error {
	switch c.config.AuditStore() {
	case "sqlite":
		path := c.config.AuditPath()
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create audit directory: %w", err)
			}
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return err
		}
		c.db = db
		c.auditSink = sqlite.NewAuditRepository(db)

	case "file":
		sink, err := file.NewAuditSink(afero.NewOsFs(), c.config.AuditPath())
		if err != nil {
			return err
		}
		c.auditSink = sink

	case "memory":
		c.auditSink = memory.NewAuditSink()

	default:
		return fmt.Errorf("unknown audit store %q", c.config.AuditStore())
	}
	return nil
}

// initializeDomain creates the case and session for this process.
// One process serves one case; a fresh case means a fresh lock.
func (c *Container) initializeDomain() error {
	c.workCase = workcase.NewCase()
	c.session = conversation.NewSession()
	return nil
}

// initializeAdapters builds the provider gateway and the tool catalog.
// The catalog is fully registered here and never mutated afterwards.
func (c *Container) initializeAdapters() error {
	gateway, err := provider.New(c.config.Provider(), provider.Config{
		APIKey:    c.config.APIKey(),
		BaseURL:   c.config.BaseURL(),
		Model:     c.config.Model(),
		MaxTokens: c.config.MaxTokens(),
		Timeout:   c.config.Timeout(),
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.gateway = gateway

	catalog := tool.NewCatalog()
	for _, d := range toolprovider.NewProvider().Descriptors() {
		if err := catalog.Register(d); err != nil {
			return fmt.Errorf("register tool: %w", err)
		}
	}
	if err := catalog.Register(toolprovider.NewWorkflowStageDescriptor(c.workCase)); err != nil {
		return fmt.Errorf("register tool: %w", err)
	}
	c.catalog = catalog
	return nil
}

// initializeApplication builds the orchestrator
func (c *Container) initializeApplication() error {
	c.orchestrator = orchestrate.New(c.gateway, c.catalog, c.auditSink, orchestrate.Options{
		SystemPrompt: defaultSystemPrompt,
		MaxRounds:    c.config.MaxRounds(),
		Logger:       c.logger,
	})
	return nil
}

// Orchestrator returns the message loop driver
func (c *Container) Orchestrator() *orchestrate.Orchestrator {
	return c.orchestrator
}

// Case returns the process-wide case aggregate
func (c *Container) Case() *workcase.Case {
	return c.workCase
}

// Session returns the process-wide conversation transcript
func (c *Container) Session() *conversation.Session {
	return c.session
}

// Catalog returns the registered tool catalog
func (c *Container) Catalog() *tool.Catalog {
	return c.catalog
}

// AuditSink returns the configured audit backend
func (c *Container) AuditSink() output.AuditSink {
	return c.auditSink
}

// Gateway returns the provider gateway
func (c *Container) Gateway() output.ProviderGateway {
	return c.gateway
}

// Close releases held resources
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
