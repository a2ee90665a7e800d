package workers_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/worker"
	"github.com/kdpb/inject/internal/docproc/workers"
)

func TestWorkers_RunStop(t *testing.T) {
	t.Parallel()

	var a, b atomic.Int32
	wa := worker.New("a", worker.TaskFunc(func(context.Context) error { a.Add(1); return nil }), time.Hour)
	wb := worker.New("b", worker.TaskFunc(func(context.Context) error { b.Add(1); return nil }), time.Hour)

	group := workers.NewGroup(wa, wb)
	assert.Equal(t, 2, group.Len())

	require.NoError(t, group.Run(context.Background()))
	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, wb.Stop())
	require.NoError(t, group.Stop())
	assert.False(t, wa.IsRunning())
	assert.False(t, wb.IsRunning())
}

func TestWorkers_Registration(t *testing.T) {
	t.Parallel()

	d, ok := inject.Lookup[*workers.Workers]()
	require.True(t, ok)
	assert.Equal(t, []inject.Key{"documentation_processing_worker"}, d.Dependencies())

	d, ok = inject.Lookup[*workers.DocumentationProcessingWorker]()
	require.True(t, ok)
	assert.Equal(t, []inject.Key{"documentation_pipeline", "settings", "logger"}, d.Dependencies())
}
