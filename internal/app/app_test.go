package app

import (
	"context"
	"testing"
	"workq/internal/config"
	"workq/internal/domain"
	"workq/internal/infra/memory"
	"workq/internal/infra/redisq"
	"workq/internal/makers"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithStore_WiresBothQueues(t *testing.T) {
	a := NewWithStore(&config.Config{Backend: config.BackendMemory}, memory.New())

	jobs, err := a.Queue(domain.KindJob)
	require.NoError(t, err)
	tasks, err := a.Queue(domain.KindTask)
	require.NoError(t, err)
	assert.Same(t, jobs.Store, tasks.Store)

	assert.Equal(t, "SEND WELCOME EMAIL", jobs.HandlerName(makers.AccountType, domain.HandlerIDOf(makers.AccountSendWelcome)))
	// handler ids are per queue: the task queue has no welcome handler.
	assert.Equal(t, "1", tasks.HandlerName(makers.AccountType, domain.HandlerIDOf(makers.AccountSendWelcome)))

	_, err = a.Queue("chore")
	assert.Error(t, err)
}

func TestSweepersFor(t *testing.T) {
	a := NewWithStore(&config.Config{}, memory.New())

	all, err := a.SweepersFor(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := a.SweepersFor([]domain.Kind{domain.KindTask})
	require.NoError(t, err)
	require.Len(t, one, 1)
	res, err := one[0].Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.KindTask, res.Kind)

	_, err = a.SweepersFor([]domain.Kind{"chore"})
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := OpenStore(context.Background(), &config.Config{
		Backend: config.BackendRedis,
		Redis:   config.Redis{Addr: mr.Addr(), KeyPrefix: "t:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.IsType(t, &redisq.Client{}, s)
	assert.NoError(t, s.Ping(context.Background()))

	_, err = OpenStore(context.Background(), &config.Config{Backend: "sqlite"})
	assert.Error(t, err)
}
