// Package member 会员卡与充值流水模型
package member

import (
	"time"

	"github.com/shopspring/decimal"

	"petstore/app/models"
)

// MemberCard 会员卡模型（储值卡）
//
// 每个用户同一时间最多持有一张有效会员卡。余额永不为负，
// 余额的每一次变动都与一条 CardRechargeRecord 流水在同一事务内落库。
// 注销（硬删除）仅允许在余额为零时进行，删除会级联清除充值流水。
type MemberCard struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint64          `gorm:"uniqueIndex;not null" json:"user_id"`                    // 用户ID
	CardNumber       string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"card_number"` // 会员卡号
	Balance          decimal.Decimal `gorm:"type:decimal(10,2);default:0.00" json:"balance"`         // 当前余额
	TotalRecharge    decimal.Decimal `gorm:"type:decimal(10,2);default:0.00" json:"total_recharge"`  // 累计充值
	TotalConsumption decimal.Decimal `gorm:"type:decimal(10,2);default:0.00" json:"total_consumption"` // 累计消费
	Status           CardStatus      `gorm:"type:varchar(20);default:active;index" json:"status"`    // 状态
	ActivatedAt      time.Time       `gorm:"" json:"activated_at"`                                   // 激活时间

	models.CommonTimestampsField
}

// TableName 指定表名
func (MemberCard) TableName() string {
	return "member_cards"
}

// CardRechargeRecord 会员卡充值流水
//
// 不可变的审计记录，balance_after = balance_before + amount 恒成立。
// 单条记录创建后不再更新或单独删除，仅随会员卡注销级联清除。
type CardRechargeRecord struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberCardID  uint64          `gorm:"index;not null" json:"member_card_id"`               // 会员卡ID
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`          // 充值金额
	BalanceBefore decimal.Decimal `gorm:"type:decimal(10,2)" json:"balance_before"`           // 充值前余额
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(10,2)" json:"balance_after"`            // 充值后余额
	PaymentMethod string          `gorm:"type:varchar(50)" json:"payment_method"`             // 支付方式
	TransactionNo string          `gorm:"type:varchar(100);index" json:"transaction_no"`      // 交易流水号
	OperatorID    *uint64         `gorm:"" json:"operator_id"`                                // 操作员ID（自助充值为 null）
	Remark        string          `gorm:"type:varchar(255)" json:"remark"`                    // 备注

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (CardRechargeRecord) TableName() string {
	return "card_recharge_records"
}
