package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newComponent(name string, rec *recorder, startErr error) *ComponentFunc {
	return &ComponentFunc{
		ComponentName: name,
		StartFunc: func(context.Context) error {
			if startErr != nil {
				return startErr
			}
			rec.add("start " + name)
			return nil
		},
		StopFunc: func(context.Context) error {
			rec.add("stop " + name)
			return nil
		},
	}
}

func TestManagerStartsInDependencyOrder(t *testing.T) {
	rec := &recorder{}
	m := NewManager()

	tracing := newComponent("tracing", rec, nil)
	index := newComponent("session-index", rec, nil)
	server := newComponent("api-server", rec, nil)

	require.NoError(t, m.Register(tracing))
	require.NoError(t, m.Register(index))
	require.NoError(t, m.Register(server, index, tracing))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.Ready())
	assert.True(t, m.IsRunning(server))

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.IsRunning(server))
	assert.False(t, m.Ready())

	assert.Equal(t, []string{
		"start tracing", "start session-index", "start api-server",
		"stop api-server", "stop session-index", "stop tracing",
	}, rec.list())
}

func TestManagerDependencyRegisteredLater(t *testing.T) {
	rec := &recorder{}
	m := NewManager()

	a := newComponent("a", rec, nil)
	b := newComponent("b", rec, nil)
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b, a))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []string{"start a", "start b"}, rec.list())
}

func TestManagerRollsBackOnFailure(t *testing.T) {
	rec := &recorder{}
	m := NewManager()

	first := newComponent("first", rec, nil)
	broken := newComponent("broken", rec, errors.New("port in use"))
	require.NoError(t, m.Register(first))
	require.NoError(t, m.Register(broken, first))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "port in use")
	assert.Equal(t, []string{"start first", "stop first"}, rec.list())
	assert.False(t, m.IsRunning(first))
}

func TestManagerRegisterValidation(t *testing.T) {
	m := NewManager()
	rec := &recorder{}
	a := newComponent("a", rec, nil)
	orphanDep := newComponent("orphan", rec, nil)

	assert.Error(t, m.Register(nil))
	assert.Error(t, m.Register(&ComponentFunc{}))
	require.NoError(t, m.Register(a))
	assert.Error(t, m.Register(a))
	assert.Error(t, m.Register(newComponent("b", rec, nil), orphanDep))
}

func TestManagerStopTimeoutIsLogged(t *testing.T) {
	m := NewManager()
	m.SetShutdownTimeout(10 * time.Millisecond)

	slow := &ComponentFunc{
		ComponentName: "slow",
		StopFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	require.NoError(t, m.Register(slow))
	require.NoError(t, m.Start(context.Background()))
	assert.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.IsRunning(slow))
}
