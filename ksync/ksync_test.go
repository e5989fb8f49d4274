package ksync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-simkernel/kernel"
	"github.com/joeycumines/go-simkernel/vtime"
)

// awaitN drains done until n completions have been observed, suspending
// the calling task (via Chan.Recv) between batches rather than blocking
// its goroutine outright -- blocking here instead of suspending would
// stall the executor pass that is resuming this very task.
func awaitN(ctx *kernel.TaskContext, done *Chan[struct{}], n int) {
	for got := 0; got < n; {
		got += len(done.Recv(ctx))
	}
}

func TestMutex_FiveTasksThreeIncrementsEachReachesFifteen(t *testing.T) {
	rt := kernel.New()
	m := NewMutex[int](0)
	done := NewChan[struct{}]()

	rt.BlockOn(func(ctx *kernel.TaskContext) {
		for i := 0; i < 5; i++ {
			kernel.Spawn(func(ctx *kernel.TaskContext) {
				for j := 0; j < 3; j++ {
					g := m.Lock(ctx)
					*g.Data()++
					g.Unlock()
				}
				done.Send(struct{}{})
			})
		}
		awaitN(ctx, done, 5)
	})

	assert.Equal(t, 15, m.data)
}

func TestLockWithTimeout_WithdrawsOnExpiryAndWakesNewHead(t *testing.T) {
	rt := kernel.New()
	m := NewMutex[int](0)
	done := NewChan[struct{}]()

	var secondAcquired, thirdAcquired bool

	rt.BlockOn(func(ctx *kernel.TaskContext) {
		holder := m.Lock(ctx)

		kernel.Spawn(func(ctx *kernel.TaskContext) {
			_, ok := m.LockWithTimeout(ctx, rt.Timer(), vtime.FromSeconds(1))
			secondAcquired = ok
			done.Send(struct{}{})
		})
		kernel.Spawn(func(ctx *kernel.TaskContext) {
			g := m.Lock(ctx)
			thirdAcquired = true
			g.Unlock()
			done.Send(struct{}{})
		})

		kernel.Sleep(ctx, vtime.FromSeconds(5))
		holder.Unlock()

		awaitN(ctx, done, 2)
	})

	assert.False(t, secondAcquired, "the timed-out waiter must not acquire the lock")
	assert.True(t, thirdAcquired, "cancelling the timed-out waiter must not strand the lock")
}

func TestCondvar_NotifyOneWakesOldestNotYetWoken(t *testing.T) {
	rt := kernel.New()
	m := NewMutex[int](0)
	cv := NewCondvar()
	done := NewChan[struct{}]()

	var order []int

	rt.BlockOn(func(ctx *kernel.TaskContext) {
		kernel.Spawn(func(ctx *kernel.TaskContext) {
			g := m.Lock(ctx)
			g = Wait[int](ctx, cv, g)
			order = append(order, 1)
			g.Unlock()
			done.Send(struct{}{})
		})
		kernel.Spawn(func(ctx *kernel.TaskContext) {
			g := m.Lock(ctx)
			g = Wait[int](ctx, cv, g)
			order = append(order, 2)
			g.Unlock()
			done.Send(struct{}{})
		})

		kernel.Sleep(ctx, vtime.FromSeconds(1))
		cv.NotifyOne()
		cv.NotifyOne()

		awaitN(ctx, done, 2)
	})

	require.Equal(t, []int{1, 2}, order)
}

func TestCondvar_WaitWithTimeoutExpiresWithoutNotify(t *testing.T) {
	rt := kernel.New()
	m := NewMutex[int](0)
	cv := NewCondvar()

	var ok bool
	rt.BlockOn(func(ctx *kernel.TaskContext) {
		g := m.Lock(ctx)
		_, ok = WaitWithTimeout[int](ctx, cv, g, rt.Timer(), vtime.FromSeconds(1))
	})

	assert.False(t, ok)
}

func TestChan_SendBatchesUntilRecv(t *testing.T) {
	rt := kernel.New()
	ch := NewChan[int]()

	var received []int

	rt.BlockOn(func(ctx *kernel.TaskContext) {
		ch.Send(1)
		ch.Send(2)
		ch.Send(3)
		received = ch.Recv(ctx)
	})

	assert.Equal(t, []int{1, 2, 3}, received)
}

func TestOneshot_RecvAfterCloseReturnsSenderDropped(t *testing.T) {
	rt := kernel.New()
	sender, receiver := NewOneshot[string]()
	done := NewChan[struct{}]()

	var err error

	rt.BlockOn(func(ctx *kernel.TaskContext) {
		kernel.Spawn(func(ctx *kernel.TaskContext) {
			_, err = receiver.Recv(ctx)
			done.Send(struct{}{})
		})
		sender.Close()
		awaitN(ctx, done, 1)
	})

	assert.ErrorIs(t, err, ErrSenderDropped)
}

func TestOneshot_PingPongOrdering(t *testing.T) {
	rt := kernel.New()

	pingSend, pingRecv := NewOneshot[string]()
	pongSend, pongRecv := NewOneshot[string]()
	done := NewChan[struct{}]()

	var log []string

	rt.BlockOn(func(ctx *kernel.TaskContext) {
		kernel.Spawn(func(ctx *kernel.TaskContext) {
			v, err := pingRecv.Recv(ctx)
			require.NoError(t, err)
			log = append(log, "got:"+v)
			pongSend.Send("pong")
			done.Send(struct{}{})
		})
		kernel.Spawn(func(ctx *kernel.TaskContext) {
			pingSend.Send("ping")
			v, err := pongRecv.Recv(ctx)
			require.NoError(t, err)
			log = append(log, "got:"+v)
			done.Send(struct{}{})
		})

		awaitN(ctx, done, 2)
	})

	assert.Equal(t, []string{"got:ping", "got:pong"}, log)
}
