package payment

import (
	"errors"
)

// Status 支付状态
//
// 状态只会向前推进：pending -> paid / cancelled。
// paid 和 cancelled 为终态，任何入口都不能再改写。
type Status string

const (
	StatusPending   Status = "pending"   // 待支付
	StatusPaid      Status = "paid"      // 已支付（终态）
	StatusFailed    Status = "failed"    // 支付失败
	StatusCancelled Status = "cancelled" // 已取消/关闭（终态）
	StatusRefunded  Status = "refunded"  // 已退款
)

// Method 支付方式
type Method string

const (
	MethodAlipay Method = "alipay" // 支付宝
	MethodWechat Method = "wechat" // 微信
	MethodCard   Method = "card"   // 银行卡
	MethodCash   Method = "cash"   // 现金
)

// RelatedType 支付关联的业务类型
type RelatedType string

const (
	RelatedMemberCardRecharge RelatedType = "member_card_recharge" // 会员卡充值
	RelatedProduct            RelatedType = "product"              // 商品购买
	RelatedAppointment        RelatedType = "appointment"          // 预约服务
)

// Validate 验证支付记录
func (p *Payment) Validate() error {
	if p.UserID == 0 {
		return errors.New("user_id is required")
	}
	if !p.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if !p.Method.Valid() {
		return errors.New("invalid payment method")
	}
	return nil
}

// Valid 验证支付方式
func (m Method) Valid() bool {
	switch m {
	case MethodAlipay, MethodWechat, MethodCard, MethodCash:
		return true
	}
	return false
}

// IsTerminal 是否终态
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// IsSuccess 检查支付是否成功
func (p *Payment) IsSuccess() bool {
	return p.Status == StatusPaid
}

// IsPending 检查是否待支付
func (p *Payment) IsPending() bool {
	return p.Status == StatusPending
}

// IsCancelled 检查是否已取消
func (p *Payment) IsCancelled() bool {
	return p.Status == StatusCancelled
}
