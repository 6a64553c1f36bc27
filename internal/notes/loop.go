package notes

import (
	"fmt"
	"log/slog"
	"sync"
)

// Loop 串行执行所有 UI 操作的事件循环
// 托盘菜单与前端绑定方法运行在各自的 goroutine 上，统一投递到这里执行，
// 因此 Manager 与 Window 不需要加锁。
type Loop struct {
	tasks chan func()
	stop  chan struct{}
	done  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewLoop 创建事件循环，buffer 为待执行任务队列长度
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start 在新的 goroutine 中运行循环（幂等）
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		go l.run()
	})
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("❌ [UI循环] 任务 panic: %v", r))
		}
	}()
	fn()
}

// Post 投递任务，不等待执行；循环已停止时返回 false
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Call 投递任务并等待执行完成；循环停止前未执行时返回 false
// 不能在循环自身的任务中调用，否则会死锁
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-l.done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Stop 停止循环并等待当前任务结束（幂等）；队列中尚未执行的任务被丢弃
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	l.startOnce.Do(func() {
		// 从未启动：直接标记结束
		close(l.done)
	})
	<-l.done
}
