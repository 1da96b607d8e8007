// Package toolprovider supplies the built-in diagnostic and repair
// tools the orchestrator exposes to the model. Audit-class tools only
// read host state; repair-class tools mutate it and therefore carry a
// required step argument checked against the execution lock.
package toolprovider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/opsmedic/opsmedic/internal/domain/model"
	"github.com/opsmedic/opsmedic/internal/domain/tool"
)

// CommandRunner executes one host command and returns its combined
// output. Extracted so tests can stub command execution.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

func defaultRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Provider builds the built-in tool descriptors
type Provider struct {
	fs  afero.Fs
	run CommandRunner
}

// NewProvider creates a provider backed by the real filesystem and
// command execution.
func NewProvider() *Provider {
	return &Provider{fs: afero.NewOsFs(), run: defaultRunner}
}

// NewProviderWith creates a provider with explicit dependencies
func NewProviderWith(fs afero.Fs, run CommandRunner) *Provider {
	return &Provider{fs: fs, run: run}
}

// Descriptors returns the built-in tools in registration order
func (p *Provider) Descriptors() []tool.Descriptor {
	return []tool.Descriptor{
		p.hostInfo(),
		p.diskUsage(),
		p.listProcesses(),
		p.cleanTempFiles(),
		p.restartService(),
	}
}

func (p *Provider) hostInfo() tool.Descriptor {
	return tool.Descriptor{
		Name:        "host_info",
		Capability:  model.CapabilityAudit,
		Description: "Report basic host facts: hostname, OS, architecture, CPU count.",
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
		},
		Handler: func(_ context.Context, _ map[string]any) (string, error) {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}
			return fmt.Sprintf("hostname=%s os=%s arch=%s cpus=%d pid=%d",
				hostname, runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), os.Getpid()), nil
		},
	}
}

func (p *Provider) diskUsage() tool.Descriptor {
	return tool.Descriptor{
		Name:        "disk_usage",
		Capability:  model.CapabilityAudit,
		Description: "Report total, used and available space of the filesystem holding a path.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path on the filesystem to inspect, defaults to /",
				},
			},
			"additionalProperties": false,
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			path := "/"
			if v, ok := args["path"].(string); ok && v != "" {
				path = v
			}
			return diskUsage(path)
		},
	}
}

func (p *Provider) listProcesses() tool.Descriptor {
	return tool.Descriptor{
		Name:        "list_processes",
		Capability:  model.CapabilityAudit,
		Description: "List the processes consuming the most CPU.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"minimum":     1,
					"maximum":     100,
					"description": "Number of processes to list, defaults to 15",
				},
			},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			limit := 15
			if v, ok := args["limit"].(float64); ok {
				limit = int(v)
			}
			out, err := p.run(ctx, "ps", "axo", "pid,pcpu,pmem,comm", "--sort=-pcpu")
			if err != nil {
				return "", fmt.Errorf("list processes: %w", err)
			}
			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			if len(lines) > limit+1 {
				lines = lines[:limit+1]
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

func (p *Provider) cleanTempFiles() tool.Descriptor {
	return tool.Descriptor{
		Name:        "clean_temp_files",
		Capability:  model.CapabilityRepair,
		Description: "Delete files under a directory that have not been modified recently.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory to clean, defaults to /tmp",
				},
				"older_than_hours": map[string]any{
					"type":        "integer",
					"minimum":     1,
					"description": "Only delete files older than this, defaults to 24",
				},
				"step": stepProperty(),
			},
			"required":             []any{"step"},
			"additionalProperties": false,
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			dir := "/tmp"
			if v, ok := args["path"].(string); ok && v != "" {
				dir = v
			}
			olderThan := 24 * time.Hour
			if v, ok := args["older_than_hours"].(float64); ok {
				olderThan = time.Duration(v) * time.Hour
			}
			return cleanTempFiles(p.fs, dir, olderThan)
		},
	}
}

var serviceNameRe = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)

func (p *Provider) restartService() tool.Descriptor {
	return tool.Descriptor{
		Name:        "restart_service",
		Capability:  model.CapabilityRepair,
		Description: "Restart a system service by unit name.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Service unit name, e.g. nginx",
				},
				"step": stepProperty(),
			},
			"required":             []any{"name", "step"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			if !serviceNameRe.MatchString(name) {
				return "", fmt.Errorf("invalid service name: %q", name)
			}
			out, err := p.run(ctx, "systemctl", "restart", name)
			if err != nil {
				return "", fmt.Errorf("restart %s: %w: %s", name, err, strings.TrimSpace(out))
			}
			return fmt.Sprintf("restarted %s", name), nil
		},
	}
}

// stepProperty is the schema fragment every repair tool carries; the
// orchestrator reads the value to check it against the execution lock.
func stepProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     1,
		"description": "Plan step number this action implements",
	}
}

// cleanTempFiles removes stale regular files under dir. Per-file
// removal failures are counted, not fatal.
func cleanTempFiles(fs afero.Fs, dir string, olderThan time.Duration) (string, error) {
	cutoff := time.Now().Add(-olderThan)

	var removed, failed int
	var freed int64
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir || !info.Mode().IsRegular() {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if rmErr := fs.Remove(path); rmErr != nil {
			failed++
			return nil
		}
		removed++
		freed += info.Size()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("clean %s: %w", dir, err)
	}
	return fmt.Sprintf("removed %d files (%d bytes) under %s, %d failures", removed, freed, dir, failed), nil
}
