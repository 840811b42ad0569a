package services

import (
	"context"
	"fmt"

	"petstore/app/models/payment"
	"petstore/app/repositories"
	"petstore/pkg/logger"
)

// FulfillmentHandler 支付成功后的业务履约能力
//
// 每种关联类型注册一个处理器，新增业务注册新处理器即可，
// 不扩展条件分支。
type FulfillmentHandler interface {
	Fulfill(ctx context.Context, p *payment.Payment) error
}

// FulfillmentRegistry 关联类型到履约处理器的注册表
type FulfillmentRegistry struct {
	handlers map[payment.RelatedType]FulfillmentHandler
}

// NewFulfillmentRegistry 创建履约注册表
func NewFulfillmentRegistry() *FulfillmentRegistry {
	return &FulfillmentRegistry{
		handlers: make(map[payment.RelatedType]FulfillmentHandler),
	}
}

// Register 注册关联类型对应的处理器
func (r *FulfillmentRegistry) Register(relatedType payment.RelatedType, handler FulfillmentHandler) {
	r.handlers[relatedType] = handler
}

// Dispatch 按支付记录的关联类型分发履约
//
// 未注册的关联类型记录警告后按成功处理，不影响支付状态本身。
func (r *FulfillmentRegistry) Dispatch(ctx context.Context, p *payment.Payment) error {
	handler, ok := r.handlers[p.RelatedType]
	if !ok {
		logger.WarnString("支付", "履约", fmt.Sprintf("未知的关联类型：%s，out_trade_no=%s", p.RelatedType, p.OutTradeNo))
		return nil
	}
	return handler.Fulfill(ctx, p)
}

// CardRechargeHandler 会员卡充值履约处理器
type CardRechargeHandler struct {
	cards *repositories.MemberCardRepository
}

// NewCardRechargeHandler 创建会员卡充值处理器
func NewCardRechargeHandler(cards *repositories.MemberCardRepository) *CardRechargeHandler {
	return &CardRechargeHandler{cards: cards}
}

// Fulfill 将已支付订单的金额充入目标会员卡并写入流水
func (h *CardRechargeHandler) Fulfill(ctx context.Context, p *payment.Payment) error {
	if p.RelatedID == 0 {
		return fmt.Errorf("会员卡充值缺少卡 ID：out_trade_no=%s", p.OutTradeNo)
	}

	// 用户自助充值，操作员为空
	record, err := h.cards.ApplyRecharge(ctx, p.RelatedID, p.Amount, string(p.Method), p.TradeNo, nil, "在线充值")
	if err != nil {
		return fmt.Errorf("会员卡充值失败：card_id=%d: %w", p.RelatedID, err)
	}

	logger.InfoString("支付", "履约",
		fmt.Sprintf("会员卡充值成功：card_id=%d, amount=%s, balance=%s",
			p.RelatedID, record.Amount.StringFixed(2), record.BalanceAfter.StringFixed(2)))
	return nil
}

// ProductHandler 商品购买履约处理器
//
// 订单履约由交易模块处理，这里只做记录。
type ProductHandler struct{}

// NewProductHandler 创建商品购买处理器
func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// Fulfill 记录商品购买支付成功
func (h *ProductHandler) Fulfill(ctx context.Context, p *payment.Payment) error {
	logger.InfoString("支付", "履约", fmt.Sprintf("商品购买支付成功：out_trade_no=%s", p.OutTradeNo))
	return nil
}
