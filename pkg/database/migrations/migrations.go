// Package migrations 注册需要自动迁移的数据表
package migrations

import (
	"petstore/app/models/member"
	"petstore/app/models/payment"
	"petstore/app/models/user"
)

// RegisterTables 返回所有需要迁移的模型
func RegisterTables() []interface{} {
	return []interface{}{
		&user.User{},
		&payment.Payment{},
		&member.MemberCard{},
		&member.CardRechargeRecord{},
	}
}
