package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task 是提交给协程池的一个异步任务。
type Task func()

// WorkerPool 带有界队列的协程池。
//
// 通知外发等后台任务通过它执行，避免每个请求都创建协程。
type WorkerPool struct {
	name    string
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	log     *zap.Logger
}

// NewWorkerPool 创建协程池。name 只用于日志标识。
func NewWorkerPool(name string, workers, queueSize int, log *zap.Logger) *WorkerPool {
	return &WorkerPool{
		name:    name,
		workers: workers,
		tasks:   make(chan Task, queueSize),
		log:     log,
	}
}

// Start 启动工作协程，ctx 取消时全部退出。
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Submit 提交任务，队列满时阻塞。
func (p *WorkerPool) Submit(task Task) {
	p.tasks <- task
}

// TrySubmit 提交任务，队列满时立即返回 false。
func (p *WorkerPool) TrySubmit(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop 关闭队列并等待已入队的任务执行完毕。
func (p *WorkerPool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}

func (p *WorkerPool) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.execute(task)
		}
	}
}

// execute 执行单个任务，任务内的 panic 不会拖垮工作协程。
func (p *WorkerPool) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panic recovered",
				zap.String("pool", p.name),
				zap.Any("panic", r),
			)
		}
	}()
	task()
}
