package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"petstore/pkg/logger"
)

// Applier 执行入账的接口，由业务层实现
type Applier interface {
	// Applied 该交易号是否已经入账过（幂等检查）
	Applied(ctx context.Context, task *Task) (bool, error)
	// Apply 执行入账
	Apply(ctx context.Context, task *Task) error
}

// Notifier 死信告警接口
type Notifier interface {
	NotifyDeadLetter(ctx context.Context, task *Task, lastErr error)
}

// Worker 对账工作器
type Worker struct {
	queue    *Queue
	applier  Applier
	notifier Notifier
	stopChan chan struct{}
	wg       sync.WaitGroup
	config   WorkerConfig
}

// WorkerConfig 工作器配置
type WorkerConfig struct {
	WorkerCount     int           // 并发工作器数量
	MaxRetries      int           // 最大重试次数
	RetryInterval   time.Duration // 重试间隔
	PopTimeout      time.Duration // 出队阻塞时长
	ShutdownTimeout time.Duration // 关闭超时时间
}

// NewWorker 创建对账工作器组
func NewWorker(queue *Queue, applier Applier, notifier Notifier, config WorkerConfig) *Worker {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 2
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = 30 * time.Second
	}
	if config.PopTimeout <= 0 {
		config.PopTimeout = 5 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	return &Worker{
		queue:    queue,
		applier:  applier,
		notifier: notifier,
		stopChan: make(chan struct{}),
		config:   config,
	}
}

// Start 启动工作器组
func (w *Worker) Start() {
	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
}

// run 单个工作器主循环
func (w *Worker) run(id int) {
	defer w.wg.Done()

	logger.InfoString("Reconcile", "Start", fmt.Sprintf("Worker %d started", id))

	for {
		select {
		case <-w.stopChan:
			logger.InfoString("Reconcile", "Stop", fmt.Sprintf("Worker %d stopping", id))
			return
		default:
			if err := w.processNext(); err != nil {
				logger.ErrorString("Reconcile", "Process", err.Error())
				time.Sleep(time.Second) // 错误恢复延迟
			}
		}
	}
}

// processNext 取出并处理一个任务
func (w *Worker) processNext() error {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.PopTimeout+30*time.Second)
	defer cancel()

	task, err := w.queue.Dequeue(ctx, w.config.PopTimeout)
	if err != nil {
		return err
	}
	if task == nil {
		return nil // 队列为空
	}

	return w.handleTask(ctx, task)
}

// handleTask 处理单个对账任务
func (w *Worker) handleTask(ctx context.Context, task *Task) error {
	// 幂等检查：可能在上一次尝试中已经入账成功但状态未及时落盘
	applied, err := w.applier.Applied(ctx, task)
	if err != nil {
		return w.retryOrDead(ctx, task, fmt.Errorf("幂等检查失败: %w", err))
	}
	if applied {
		logger.InfoString("Reconcile", "Skip",
			fmt.Sprintf("交易 %s 已入账，跳过", task.TransactionNo))
		return nil
	}

	if err := w.applier.Apply(ctx, task); err != nil {
		return w.retryOrDead(ctx, task, err)
	}

	logger.InfoString("Reconcile", "Applied",
		fmt.Sprintf("订单 %s 补偿入账成功（第 %d 次尝试）", task.OutTradeNo, task.Attempts+1))
	return nil
}

// retryOrDead 失败任务重新入队，重试耗尽后转入死信并告警
func (w *Worker) retryOrDead(ctx context.Context, task *Task, cause error) error {
	task.Attempts++
	if task.Attempts >= w.config.MaxRetries {
		logger.ErrorString("Reconcile", "DeadLetter",
			fmt.Sprintf("订单 %s 重试 %d 次后放弃: %v", task.OutTradeNo, task.Attempts, cause))
		if err := w.queue.MoveToDeadLetter(ctx, task); err != nil {
			return fmt.Errorf("写入死信队列失败: %w", err)
		}
		if w.notifier != nil {
			w.notifier.NotifyDeadLetter(ctx, task, cause)
		}
		return nil
	}

	logger.WarnString("Reconcile", "Retry",
		fmt.Sprintf("订单 %s 入账失败（第 %d 次）: %v", task.OutTradeNo, task.Attempts, cause))

	// 延迟后重新入队，避免立即重试打满下游
	select {
	case <-time.After(w.config.RetryInterval):
	case <-w.stopChan:
	}
	return w.queue.Enqueue(ctx, task)
}

// Stop 优雅关闭工作器组
func (w *Worker) Stop() {
	close(w.stopChan)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoString("Reconcile", "Stop", "All workers stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		logger.WarnString("Reconcile", "Stop", "Worker shutdown timed out")
	}
}
