package member

// CardStatus 会员卡状态
type CardStatus string

const (
	CardStatusActive    CardStatus = "active"    // 正常
	CardStatusFrozen    CardStatus = "frozen"    // 已冻结
	CardStatusCancelled CardStatus = "cancelled" // 已注销
)

// IsActive 会员卡是否可用
func (c *MemberCard) IsActive() bool {
	return c.Status == CardStatusActive
}

// IsFrozen 会员卡是否已冻结
func (c *MemberCard) IsFrozen() bool {
	return c.Status == CardStatusFrozen
}

// CanCancel 会员卡是否满足注销条件（余额为零）
func (c *MemberCard) CanCancel() bool {
	return c.Balance.IsZero()
}
