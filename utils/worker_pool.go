package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed 工作池已关闭
var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool 表示一个工作池
// 用于并行推进互不影响的车道
type WorkerPool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
	sendMu  sync.RWMutex // Submit持有读锁发送，Stop持有写锁关闭jobs
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerPool 创建一个新的工作池
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobs:    make(chan func(), workers*2), // 缓冲区大小为工作者数量的2倍
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.start()
	return pool
}

// Workers 返回工作协程数量
func (p *WorkerPool) Workers() int {
	return p.workers
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					job()
				}
			}
		}()
	}
}

// Submit 提交一个任务到工作池
// 如果工作池已关闭，返回false，否则返回true。可以与Stop并发调用
func (p *WorkerPool) Submit(job func()) bool {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.closed.Load() {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// RunAll 并行执行一批任务并等待全部完成
// 返回所有任务错误的合并结果，任务中的panic会转换为错误。
// Stop会丢弃尚未开始的任务，不能在RunAll返回之前调用
func (p *WorkerPool) RunAll(ctx context.Context, tasks []func() error) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}

		wg.Add(1)
		submitted := p.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			errs[i] = task()
		})
		if !submitted {
			wg.Done()
			errs[i] = ErrPoolClosed
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Stop 停止工作池
// 安全地停止所有工作协程并等待它们完成
func (p *WorkerPool) Stop() {
	// 如果已经关闭，直接返回
	if p.closed.Swap(true) {
		return
	}

	// 取消上下文，通知所有工作协程退出，阻塞中的Submit也随之返回
	p.cancel()

	// 等待进行中的Submit结束后再关闭通道
	p.sendMu.Lock()
	close(p.jobs)
	p.sendMu.Unlock()

	// 等待所有工作协程完成
	p.wg.Wait()
}
