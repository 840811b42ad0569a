// Package payment 支付记录模型
package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 支付记录模型
//
// 一条记录对应一次支付请求（支付意向），商户订单号 OutTradeNo
// 在创建时生成且全局唯一，第三方交易号 TradeNo 仅在支付成功后写入。
// 支付记录只增不删，作为对账审计依据。
type Payment struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64          `gorm:"index;not null" json:"user_id"`                          // 用户ID
	OutTradeNo  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"out_trade_no"` // 商户订单号
	TradeNo     string          `gorm:"type:varchar(64);index" json:"trade_no"`                 // 第三方交易号
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`              // 支付金额（元）
	Status      Status          `gorm:"type:varchar(20);default:pending;index" json:"status"`   // 支付状态
	Method      Method          `gorm:"type:varchar(20);not null" json:"method"`                // 支付方式
	Subject     string          `gorm:"type:varchar(255);not null" json:"subject"`              // 商品标题
	Description string          `gorm:"type:text" json:"description"`                           // 商品描述
	RelatedID   uint64          `gorm:"" json:"related_id"`                                     // 关联ID（会员卡、商品等）
	RelatedType RelatedType     `gorm:"type:varchar(32)" json:"related_type"`                   // 关联类型

	ResponseData string     `gorm:"type:text" json:"-"` // 网关下单返回数据
	NotifyData   string     `gorm:"type:text" json:"-"` // 异步通知原始数据
	ErrorMessage string     `gorm:"type:text" json:"-"` // 错误信息
	PaidAt       *time.Time `gorm:"" json:"paid_at"`    // 支付完成时间

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"" json:"updated_at"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
