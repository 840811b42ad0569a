// Package reconcile 对账任务队列
//
// 支付已在网关侧成功但内部入账失败时（会员卡不存在、被冻结等），
// 将入账任务写入 Redis 队列，由后台 worker 重试，
// 重试耗尽后转入死信队列并告警，等待人工处理。
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"petstore/pkg/redis"
)

// Task 一条待对账的会员卡入账任务
type Task struct {
	OutTradeNo    string    `json:"out_trade_no"`   // 商户订单号
	CardID        uint64    `json:"card_id"`        // 目标会员卡
	Amount        string    `json:"amount"`         // 金额（元，字符串精确表示）
	Method        string    `json:"method"`         // 支付方式
	TransactionNo string    `json:"transaction_no"` // 第三方交易号，幂等检查依据
	Remark        string    `json:"remark"`         // 流水备注
	Reason        string    `json:"reason"`         // 首次失败原因
	Attempts      int       `json:"attempts"`       // 已重试次数
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// Queue Redis 对账队列
type Queue struct {
	client *redis.RedisClient
	key    string
	dead   string
}

// NewQueue 创建对账队列
func NewQueue(client *redis.RedisClient, prefix string) *Queue {
	return &Queue{
		client: client,
		key:    fmt.Sprintf("%s:tasks", prefix),
		dead:   fmt.Sprintf("%s:dead", prefix),
	}
}

// Enqueue 任务入队
func (q *Queue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化对账任务失败: %w", err)
	}
	if err := q.client.Client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("对账任务入队失败: %w", err)
	}
	return nil
}

// Dequeue 阻塞式出队，超时返回 (nil, nil)
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	result, err := q.client.Client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("对账任务出队失败: %w", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("反序列化对账任务失败: %w", err)
	}
	return &task, nil
}

// MoveToDeadLetter 重试耗尽的任务转入死信队列
func (q *Queue) MoveToDeadLetter(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化对账任务失败: %w", err)
	}
	return q.client.Client.LPush(ctx, q.dead, payload).Err()
}

// Size 当前待处理任务数
func (q *Queue) Size(ctx context.Context) (int64, error) {
	return q.client.Client.LLen(ctx, q.key).Result()
}
