package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWorkerPool(t *testing.T) {
	t.Run("提交的任务全部执行", func(t *testing.T) {
		p := NewWorkerPool("test", 2, 16, zap.NewNop())
		p.Start(context.Background())

		var done atomic.Int64
		for i := 0; i < 10; i++ {
			p.Submit(func() {
				done.Add(1)
			})
		}
		p.Stop()

		assert.Equal(t, int64(10), done.Load())
	})

	t.Run("队列满时TrySubmit返回false", func(t *testing.T) {
		// 不启动工作协程，队列容量 1
		p := NewWorkerPool("test", 1, 1, zap.NewNop())

		assert.True(t, p.TrySubmit(func() {}))
		assert.False(t, p.TrySubmit(func() {}))
	})

	t.Run("任务panic不影响后续任务", func(t *testing.T) {
		p := NewWorkerPool("test", 1, 4, zap.NewNop())
		p.Start(context.Background())

		var done atomic.Int64
		p.Submit(func() {
			panic("boom")
		})
		p.Submit(func() {
			done.Add(1)
		})
		p.Stop()

		assert.Equal(t, int64(1), done.Load())
	})

	t.Run("上下文取消后工作协程退出", func(t *testing.T) {
		p := NewWorkerPool("test", 2, 4, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		p.Start(ctx)
		cancel()

		// 等待协程响应取消，Stop 不应阻塞
		time.Sleep(50 * time.Millisecond)
		finished := make(chan struct{})
		go func() {
			p.Stop()
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("pool did not stop after context cancellation")
		}
	})
}
