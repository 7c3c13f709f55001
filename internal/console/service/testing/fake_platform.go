// Package testing provides test utilities for the platform service.
package testing

import (
	"context"
	"sync"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// AddMcpServerCall records one AddMcpServer invocation.
type AddMcpServerCall struct {
	URL  string
	Name string
}

// ImportCall records one ImportAgent invocation.
type ImportCall struct {
	Document *models.AgentImportDocument
	Options  models.ImportOptions
}

// FakePlatform is a configurable fake implementation of service.PlatformService.
// Data fields drive the default behavior; function hooks take precedence when set.
type FakePlatform struct {
	mu sync.Mutex

	// Data fields for simple data-driven tests
	Models     []models.ModelOption
	McpServers []models.McpServerRecord
	Tools      []models.ToolInfo

	// Call recording for verification
	AddMcpServerCalls  []AddMcpServerCall
	ImportCalls        []ImportCall
	RefreshToolsCalls  int
	RefreshAgentsCalls int

	// Function hooks for custom behavior
	PingFn           func(ctx context.Context) error
	ListModelsFn     func(ctx context.Context) ([]models.ModelOption, error)
	ListMcpServersFn func(ctx context.Context) ([]models.McpServerRecord, error)
	AddMcpServerFn   func(ctx context.Context, url, name string) error
	ListToolsFn      func(ctx context.Context) ([]models.ToolInfo, error)
	RefreshToolsFn   func(ctx context.Context) error
	RefreshAgentsFn  func(ctx context.Context) error
	ImportAgentFn    func(ctx context.Context, doc *models.AgentImportDocument, opts models.ImportOptions) error
}

// NewFakePlatform creates an empty FakePlatform.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{}
}

func (f *FakePlatform) Ping(ctx context.Context) error {
	if f.PingFn != nil {
		return f.PingFn(ctx)
	}
	return nil
}

func (f *FakePlatform) ListModels(ctx context.Context) ([]models.ModelOption, error) {
	if f.ListModelsFn != nil {
		return f.ListModelsFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ModelOption(nil), f.Models...), nil
}

func (f *FakePlatform) ListMcpServers(ctx context.Context) ([]models.McpServerRecord, error) {
	if f.ListMcpServersFn != nil {
		return f.ListMcpServersFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.McpServerRecord(nil), f.McpServers...), nil
}

// AddMcpServer records the call and, without a hook, appends the server to McpServers.
func (f *FakePlatform) AddMcpServer(ctx context.Context, url, name string) error {
	f.mu.Lock()
	f.AddMcpServerCalls = append(f.AddMcpServerCalls, AddMcpServerCall{URL: url, Name: name})
	f.mu.Unlock()
	if f.AddMcpServerFn != nil {
		return f.AddMcpServerFn(ctx, url, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.McpServers = append(f.McpServers, models.McpServerRecord{ServiceName: name, McpURL: url, Status: true})
	return nil
}

func (f *FakePlatform) ListTools(ctx context.Context) ([]models.ToolInfo, error) {
	if f.ListToolsFn != nil {
		return f.ListToolsFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ToolInfo(nil), f.Tools...), nil
}

func (f *FakePlatform) RefreshTools(ctx context.Context) error {
	f.mu.Lock()
	f.RefreshToolsCalls++
	f.mu.Unlock()
	if f.RefreshToolsFn != nil {
		return f.RefreshToolsFn(ctx)
	}
	return nil
}

func (f *FakePlatform) RefreshAgents(ctx context.Context) error {
	f.mu.Lock()
	f.RefreshAgentsCalls++
	f.mu.Unlock()
	if f.RefreshAgentsFn != nil {
		return f.RefreshAgentsFn(ctx)
	}
	return nil
}

func (f *FakePlatform) ImportAgent(ctx context.Context, doc *models.AgentImportDocument, opts models.ImportOptions) error {
	f.mu.Lock()
	f.ImportCalls = append(f.ImportCalls, ImportCall{Document: doc, Options: opts})
	f.mu.Unlock()
	if f.ImportAgentFn != nil {
		return f.ImportAgentFn(ctx, doc, opts)
	}
	return nil
}

// AddMcpServerCallCount returns the number of AddMcpServer calls so far.
func (f *FakePlatform) AddMcpServerCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.AddMcpServerCalls)
}

// RefreshCounts returns the tool and agent refresh call counts.
func (f *FakePlatform) RefreshCounts() (tools, agents int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RefreshToolsCalls, f.RefreshAgentsCalls
}

// LastImport returns the most recent ImportAgent call, if any.
func (f *FakePlatform) LastImport() (ImportCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ImportCalls) == 0 {
		return ImportCall{}, false
	}
	return f.ImportCalls[len(f.ImportCalls)-1], true
}
