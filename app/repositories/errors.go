package repositories

import "errors"

// 仓库层业务错误
var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrCardNotFound   = errors.New("会员卡不存在")
	ErrCardExists     = errors.New("用户已有会员卡")
	ErrCardNotActive  = errors.New("会员卡状态异常，无法操作")
	ErrCardHasBalance = errors.New("会员卡仍有余额，无法注销")
)
