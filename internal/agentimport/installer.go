package agentimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	// ErrURLRequired is returned when an install has no usable URL.
	ErrURLRequired = errors.New("mcp server url is required")

	// ErrInstallInProgress is returned when the same reference is already being installed.
	ErrInstallInProgress = errors.New("mcp server install already in progress")

	// ErrNoSuchServer is returned for an index outside the mcp_info list.
	ErrNoSuchServer = errors.New("no such mcp server reference")
)

const (
	installFailedMessage = "Failed to install MCP server"
	refreshTimeout       = 30 * time.Second
)

// McpRegistrar registers an MCP server on the platform.
type McpRegistrar interface {
	AddMcpServer(ctx context.Context, url, name string) error
}

// RefreshNotifier asks the platform to rescan tools and agents after a change.
type RefreshNotifier interface {
	RefreshTools(ctx context.Context) error
	RefreshAgents(ctx context.Context) error
}

// backendMessenger is implemented by errors that carry a message from the platform.
type backendMessenger interface {
	BackendMessage() string
}

// Installer owns the install state of every referenced MCP server.
// Installs on different indices run independently; the lock is never held
// across a platform call.
type Installer struct {
	mu       sync.Mutex
	states   []McpInstallState
	registry McpRegistrar
	notifier RefreshNotifier
	logger   *slog.Logger

	refreshes sync.WaitGroup
}

// NewInstaller takes ownership of states. notifier may be nil.
func NewInstaller(states []McpInstallState, registry McpRegistrar, notifier RefreshNotifier, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		states:   states,
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}
}

// States returns a snapshot of every reference.
func (in *Installer) States() []McpInstallState {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]McpInstallState, len(in.states))
	copy(out, in.states)
	return out
}

// State returns a snapshot of one reference.
func (in *Installer) State(index int) (McpInstallState, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if index < 0 || index >= len(in.states) {
		return McpInstallState{}, fmt.Errorf("%w: %d", ErrNoSuchServer, index)
	}
	return in.states[index], nil
}

// EditURL stores a user-entered URL. No validation happens here.
func (in *Installer) EditURL(index int, url string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if index < 0 || index >= len(in.states) {
		return fmt.Errorf("%w: %d", ErrNoSuchServer, index)
	}
	in.states[index].EditedURL = url
	return nil
}

// Install registers the server at index. A reference that is already
// installed is left alone; a failed attempt can simply be retried.
func (in *Installer) Install(ctx context.Context, index int) error {
	in.mu.Lock()
	if index < 0 || index >= len(in.states) {
		in.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoSuchServer, index)
	}
	state := &in.states[index]
	if state.Installing {
		in.mu.Unlock()
		return ErrInstallInProgress
	}
	if state.Installed {
		in.mu.Unlock()
		return nil
	}
	url := state.EffectiveURL()
	if url == "" {
		state.LastError = ErrURLRequired.Error()
		in.mu.Unlock()
		return ErrURLRequired
	}
	name := state.Name
	state.Installing = true
	state.LastError = ""
	in.mu.Unlock()

	err := in.registry.AddMcpServer(ctx, url, name)

	in.mu.Lock()
	state = &in.states[index]
	state.Installing = false
	if err != nil {
		state.LastError = failureMessage(err)
		in.mu.Unlock()
		return fmt.Errorf("failed to install MCP server %s: %w", name, err)
	}
	state.Installed = true
	state.EditedURL = url
	in.mu.Unlock()

	in.logger.Info("installed MCP server", "name", name, "url", url)
	in.notifyRefresh(ctx)
	return nil
}

// Ready reports whether no reference blocks submission.
func (in *Installer) Ready() bool {
	return len(in.Pending()) == 0
}

// Pending returns the indices that are neither installed nor given a URL.
func (in *Installer) Pending() []int {
	in.mu.Lock()
	defer in.mu.Unlock()
	var pending []int
	for i, s := range in.states {
		if !s.Ready() {
			pending = append(pending, i)
		}
	}
	return pending
}

// Wait blocks until background refreshes have finished.
func (in *Installer) Wait() {
	in.refreshes.Wait()
}

func (in *Installer) notifyRefresh(ctx context.Context) {
	if in.notifier == nil {
		return
	}
	// the caller's request may end before the refreshes do
	base := context.WithoutCancel(ctx)
	refresh := func(what string, fn func(context.Context) error) {
		defer in.refreshes.Done()
		rctx, cancel := context.WithTimeout(base, refreshTimeout)
		defer cancel()
		if err := fn(rctx); err != nil {
			in.logger.Warn("refresh after MCP install failed", "target", what, "error", err)
		}
	}
	in.refreshes.Add(2)
	go refresh("tools", in.notifier.RefreshTools)
	go refresh("agents", in.notifier.RefreshAgents)
}

func failureMessage(err error) string {
	var bm backendMessenger
	if errors.As(err, &bm) {
		if msg := strings.TrimSpace(bm.BackendMessage()); msg != "" {
			return msg
		}
	}
	return installFailedMessage
}
