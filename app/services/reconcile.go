package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"petstore/app/models/payment"
	"petstore/app/repositories"
	"petstore/pkg/logger"
	"petstore/pkg/reconcile"
)

// QueueReconciler 把入账失败的支付写入 Redis 对账队列
type QueueReconciler struct {
	queue *reconcile.Queue
}

// NewQueueReconciler 创建队列对账器
func NewQueueReconciler(queue *reconcile.Queue) *QueueReconciler {
	return &QueueReconciler{queue: queue}
}

// EnqueueRecharge 会员卡入账失败的支付进入补偿队列
func (r *QueueReconciler) EnqueueRecharge(ctx context.Context, p *payment.Payment, reason string) error {
	task := &reconcile.Task{
		OutTradeNo:    p.OutTradeNo,
		CardID:        p.RelatedID,
		Amount:        p.Amount.StringFixed(2),
		Method:        string(p.Method),
		TransactionNo: p.TradeNo,
		Remark:        "在线充值",
		Reason:        reason,
		EnqueuedAt:    time.Now(),
	}
	return r.queue.Enqueue(ctx, task)
}

// CardRechargeApplier 对账 worker 的入账实现
type CardRechargeApplier struct {
	cards *repositories.MemberCardRepository
}

// NewCardRechargeApplier 创建会员卡入账执行器
func NewCardRechargeApplier(cards *repositories.MemberCardRepository) *CardRechargeApplier {
	return &CardRechargeApplier{cards: cards}
}

// Applied 该笔网关交易是否已有充值流水
func (a *CardRechargeApplier) Applied(ctx context.Context, task *reconcile.Task) (bool, error) {
	return a.cards.HasRechargeForTransaction(ctx, task.TransactionNo)
}

// Apply 执行会员卡补偿入账
func (a *CardRechargeApplier) Apply(ctx context.Context, task *reconcile.Task) error {
	amount, err := decimal.NewFromString(task.Amount)
	if err != nil {
		logger.ErrorString("Reconcile", "Apply", "对账任务金额非法: "+task.Amount)
		return err
	}

	_, err = a.cards.ApplyRecharge(ctx, task.CardID, amount,
		task.Method, task.TransactionNo, nil, task.Remark)
	return err
}
