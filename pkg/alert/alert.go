// Package alert 运维告警通知
//
// 对账死信等需要人工介入的事件，通过 Webhook 推送到运维群。
// 未配置 Webhook 地址时退化为仅记录日志。
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"petstore/pkg/logger"
	"petstore/pkg/reconcile"
)

// Service Webhook 告警服务
type Service struct {
	client     *resty.Client
	webhookURL string
}

// NewService 创建告警服务，webhookURL 为空时只记录日志
func NewService(webhookURL string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Service{
		client:     client,
		webhookURL: webhookURL,
	}
}

// deadLetterMessage Webhook 消息体
type deadLetterMessage struct {
	Event         string `json:"event"`
	OutTradeNo    string `json:"out_trade_no"`
	TransactionNo string `json:"transaction_no"`
	Amount        string `json:"amount"`
	CardID        uint64 `json:"card_id"`
	Attempts      int    `json:"attempts"`
	Error         string `json:"error"`
	OccurredAt    string `json:"occurred_at"`
}

// NotifyDeadLetter 推送对账死信告警
func (s *Service) NotifyDeadLetter(ctx context.Context, task *reconcile.Task, lastErr error) {
	msg := fmt.Sprintf("订单 %s（交易号 %s，金额 %s）补偿入账失败 %d 次，已转入死信队列: %v",
		task.OutTradeNo, task.TransactionNo, task.Amount, task.Attempts, lastErr)
	logger.ErrorString("Alert", "DeadLetter", msg)

	if s.webhookURL == "" {
		return
	}

	body := deadLetterMessage{
		Event:         "reconcile_dead_letter",
		OutTradeNo:    task.OutTradeNo,
		TransactionNo: task.TransactionNo,
		Amount:        task.Amount,
		CardID:        task.CardID,
		Attempts:      task.Attempts,
		Error:         lastErr.Error(),
		OccurredAt:    time.Now().Format(time.RFC3339),
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.webhookURL)
	if err != nil {
		logger.ErrorString("Alert", "Webhook", fmt.Sprintf("告警推送失败: %v", err))
		return
	}
	if resp.IsError() {
		logger.ErrorString("Alert", "Webhook",
			fmt.Sprintf("告警推送返回异常状态码 %d", resp.StatusCode()))
	}
}
