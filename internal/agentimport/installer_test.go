package agentimport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	servicetesting "github.com/agentregistry-dev/agentconsole/internal/console/service/testing"
)

type platformMessageError struct{ msg string }

func (e *platformMessageError) Error() string          { return "platform rejected request: " + e.msg }
func (e *platformMessageError) BackendMessage() string { return e.msg }

func newTestInstaller(t *testing.T, platform *servicetesting.FakePlatform) *Installer {
	t.Helper()
	states := ParseMcpServers(loadDoc(t, multiAgentDoc), nil)
	return NewInstaller(states, platform, platform, nil)
}

func TestInstallRequiresURL(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	in := newTestInstaller(t, platform)

	err := in.Install(context.Background(), 0)
	assert.ErrorIs(t, err, ErrURLRequired)

	require.NoError(t, in.EditURL(0, "   "))
	err = in.Install(context.Background(), 0)
	assert.ErrorIs(t, err, ErrURLRequired)

	assert.Zero(t, platform.AddMcpServerCallCount())
	state, err := in.State(0)
	require.NoError(t, err)
	assert.False(t, state.Installed)
}

func TestInstallSuccess(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	in := newTestInstaller(t, platform)

	state, err := in.State(0)
	require.NoError(t, err)
	assert.True(t, state.URLEditable)
	assert.False(t, state.Installed)

	require.NoError(t, in.EditURL(0, " http://x "))
	require.NoError(t, in.Install(context.Background(), 0))
	in.Wait()

	state, err = in.State(0)
	require.NoError(t, err)
	assert.True(t, state.Installed)
	assert.False(t, state.Installing)
	assert.Equal(t, "http://x", state.EditedURL)

	require.Len(t, platform.AddMcpServerCalls, 1)
	assert.Equal(t, servicetesting.AddMcpServerCall{URL: "http://x", Name: "search"}, platform.AddMcpServerCalls[0])

	tools, agents := platform.RefreshCounts()
	assert.Equal(t, 1, tools)
	assert.Equal(t, 1, agents)

	// already installed: nothing else is registered
	require.NoError(t, in.Install(context.Background(), 0))
	assert.Equal(t, 1, platform.AddMcpServerCallCount())
}

func TestInstallUsesOriginalURL(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	in := newTestInstaller(t, platform)

	require.NoError(t, in.Install(context.Background(), 1))
	in.Wait()
	require.Len(t, platform.AddMcpServerCalls, 1)
	assert.Equal(t, "http://weather.local/mcp", platform.AddMcpServerCalls[0].URL)
}

func TestInstallFailureKeepsState(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	attempts := 0
	platform.AddMcpServerFn = func(ctx context.Context, url, name string) error {
		attempts++
		switch attempts {
		case 1:
			return &platformMessageError{msg: "service name already exists"}
		case 2:
			return errors.New("connection refused")
		default:
			return nil
		}
	}
	in := newTestInstaller(t, platform)
	require.NoError(t, in.EditURL(0, "http://x"))

	err := in.Install(context.Background(), 0)
	require.Error(t, err)
	state, _ := in.State(0)
	assert.False(t, state.Installed)
	assert.False(t, state.Installing)
	assert.Equal(t, "service name already exists", state.LastError)

	err = in.Install(context.Background(), 0)
	require.Error(t, err)
	state, _ = in.State(0)
	assert.Equal(t, installFailedMessage, state.LastError)

	require.NoError(t, in.Install(context.Background(), 0))
	in.Wait()
	state, _ = in.State(0)
	assert.True(t, state.Installed)
	assert.Empty(t, state.LastError)

	tools, agents := platform.RefreshCounts()
	assert.Equal(t, 1, tools, "refresh only after a successful install")
	assert.Equal(t, 1, agents)
}

func TestInstallRefreshFailureIsNotAnInstallFailure(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	platform.RefreshToolsFn = func(context.Context) error { return errors.New("scan failed") }
	platform.RefreshAgentsFn = func(context.Context) error { return errors.New("reload failed") }
	in := newTestInstaller(t, platform)

	require.NoError(t, in.EditURL(0, "http://x"))
	require.NoError(t, in.Install(context.Background(), 0))
	in.Wait()

	state, _ := in.State(0)
	assert.True(t, state.Installed)
	assert.Empty(t, state.LastError)
}

func TestInstallIndicesAreIndependent(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	release := make(chan struct{})
	started := make(chan string, 2)
	platform.AddMcpServerFn = func(ctx context.Context, url, name string) error {
		started <- name
		if name == "search" {
			<-release
		}
		return nil
	}
	in := newTestInstaller(t, platform)
	require.NoError(t, in.EditURL(0, "http://x"))

	var wg sync.WaitGroup
	wg.Add(1)
	var slowErr error
	go func() {
		defer wg.Done()
		slowErr = in.Install(context.Background(), 0)
	}()
	require.Equal(t, "search", <-started)

	state, _ := in.State(0)
	assert.True(t, state.Installing)

	// the same index is busy
	assert.ErrorIs(t, in.Install(context.Background(), 0), ErrInstallInProgress)

	// other indices and edits are not blocked
	require.NoError(t, in.Install(context.Background(), 1))
	require.Equal(t, "weather", <-started)
	state, _ = in.State(1)
	assert.True(t, state.Installed)
	require.NoError(t, in.EditURL(0, "http://x"))

	close(release)
	wg.Wait()
	require.NoError(t, slowErr)
	in.Wait()

	state, _ = in.State(0)
	assert.True(t, state.Installed)
	assert.True(t, in.Ready())
}

func TestInstallerPending(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	in := newTestInstaller(t, platform)

	assert.Equal(t, []int{0}, in.Pending(), "an editable reference without a URL blocks")
	assert.False(t, in.Ready())

	require.NoError(t, in.EditURL(0, "http://x"))
	assert.Empty(t, in.Pending())

	assert.ErrorIs(t, in.EditURL(5, "http://x"), ErrNoSuchServer)
	assert.ErrorIs(t, in.Install(context.Background(), -1), ErrNoSuchServer)
	_, err := in.State(2)
	assert.ErrorIs(t, err, ErrNoSuchServer)
}

func TestInstallRefreshOutlivesRequestContext(t *testing.T) {
	platform := servicetesting.NewFakePlatform()
	refreshed := make(chan error, 2)
	platform.RefreshToolsFn = func(ctx context.Context) error {
		refreshed <- ctx.Err()
		return nil
	}
	platform.RefreshAgentsFn = func(ctx context.Context) error {
		refreshed <- ctx.Err()
		return nil
	}
	in := newTestInstaller(t, platform)
	require.NoError(t, in.EditURL(0, "http://x"))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, in.Install(ctx, 0))
	cancel()
	in.Wait()

	for i := 0; i < 2; i++ {
		select {
		case err := <-refreshed:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("refresh did not run")
		}
	}
}
