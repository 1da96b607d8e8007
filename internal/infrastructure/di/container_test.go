package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmedic/opsmedic/internal/app/config"
	"github.com/opsmedic/opsmedic/internal/domain/model"
)

func testConfig(auditStore, auditPath string) config.Config {
	return config.NewAppConfig(
		"anthropic", "", "test-key", "",
		1024, 30, 8,
		auditStore, auditPath,
		"warn",
		"default", "",
	)
}

func TestNewContainer_MemoryStore(t *testing.T) {
	c, err := NewContainer(testConfig("memory", ""), nil)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Orchestrator())
	assert.NotNil(t, c.AuditSink())
	assert.Equal(t, "anthropic", c.Gateway().Name())
	assert.Equal(t, model.StateIdle, c.Case().State())

	// five builtins plus the workflow stage tool
	assert.Equal(t, 6, c.Catalog().Len())
	_, ok := c.Catalog().Lookup("update_workflow_stage")
	assert.True(t, ok)
}

func TestNewContainer_SQLiteStore(t *testing.T) {
	path := t.TempDir() + "/audit/audit.db"

	c, err := NewContainer(testConfig("sqlite", path), nil)
	require.NoError(t, err)
	defer c.Close()

	entries, err := c.AuditSink().List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewContainer_FileStore(t *testing.T) {
	path := t.TempDir() + "/audit.jsonl"

	c, err := NewContainer(testConfig("file", path), nil)
	require.NoError(t, err)
	defer c.Close()
	assert.NotNil(t, c.AuditSink())
}

func TestNewContainer_UnknownProvider(t *testing.T) {
	cfg := config.NewAppConfig(
		"mistral", "", "k", "",
		1024, 30, 8,
		"memory", "",
		"warn",
		"default", "",
	)
	_, err := NewContainer(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral")
}

func TestNewContainer_UnknownAuditStore(t *testing.T) {
	_, err := NewContainer(testConfig("redis", ""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
