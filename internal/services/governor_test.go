package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGovernorAcquireRelease 测试门卫的基本占用和释放
func TestGovernorAcquireRelease(t *testing.T) {
	t.Run("acquire then busy", func(t *testing.T) {
		g := NewGovernor(time.Hour)

		require.NoError(t, g.Acquire())
		assert.Equal(t, StateProcessing, g.Status().State)

		err := g.Acquire()
		assert.ErrorIs(t, err, ErrBusy)
	})

	t.Run("cooldown after release", func(t *testing.T) {
		g := NewGovernor(time.Hour)

		require.NoError(t, g.Acquire())
		g.Release()

		err := g.Acquire()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCooldown)

		var cooldownErr *CooldownError
		require.ErrorAs(t, err, &cooldownErr)
		assert.Greater(t, cooldownErr.Remaining, time.Duration(0))
		assert.LessOrEqual(t, cooldownErr.Remaining, time.Hour)
	})

	t.Run("acquire allowed after cooldown expires", func(t *testing.T) {
		g := NewGovernor(50 * time.Millisecond)

		require.NoError(t, g.Acquire())
		g.Release()

		time.Sleep(80 * time.Millisecond)
		assert.NoError(t, g.Acquire())
	})

	t.Run("zero cooldown replaced by default", func(t *testing.T) {
		g := NewGovernor(0)

		require.NoError(t, g.Acquire())
		g.Release()

		// 默认冷却期生效
		err := g.Acquire()
		assert.ErrorIs(t, err, ErrCooldown)
	})
}

// TestGovernorMutualExclusion 测试并发下同一时刻最多一个占用成功
func TestGovernorMutualExclusion(t *testing.T) {
	g := NewGovernor(time.Hour)

	const goroutines = 2
	var acquired int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := g.Acquire(); err == nil {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&acquired),
		"exactly one concurrent acquire may succeed")
}

// TestGovernorStatus 测试状态快照
func TestGovernorStatus(t *testing.T) {
	t.Run("idle initially", func(t *testing.T) {
		g := NewGovernor(time.Minute)
		status := g.Status()
		assert.Equal(t, StateIdle, status.State)
		assert.Equal(t, time.Duration(0), status.CooldownRemaining)
	})

	t.Run("cooldown remaining reported", func(t *testing.T) {
		g := NewGovernor(time.Minute)
		require.NoError(t, g.Acquire())
		g.Release()

		status := g.Status()
		assert.Equal(t, StateIdle, status.State)
		assert.Greater(t, status.CooldownRemaining, time.Duration(0))
	})
}

// TestCooldownErrorIs 测试冷却错误的errors.Is匹配
func TestCooldownErrorIs(t *testing.T) {
	err := &CooldownError{Remaining: 5 * time.Second}
	assert.True(t, errors.Is(err, ErrCooldown))
	assert.False(t, errors.Is(err, ErrBusy))
	assert.Contains(t, err.Error(), "5s")
}
