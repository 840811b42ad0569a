package services

import "errors"

// 服务层业务错误
var (
	// ErrInvalidAmount 支付金额非法，任何存储写入之前即被拒绝
	ErrInvalidAmount = errors.New("支付金额必须大于 0")
	// ErrGatewayUnavailable 网关未配置，支付记录保留 pending 供稍后重试
	ErrGatewayUnavailable = errors.New("支付网关未初始化，请检查密钥配置")
	// ErrGatewayTimeout 网关请求超时，可重试，不改变支付状态
	ErrGatewayTimeout = errors.New("支付网关请求超时，请稍后重试")
	// ErrVerifyFailed 异步通知验签失败
	ErrVerifyFailed = errors.New("支付通知验证失败")
	// ErrPaymentNotFound 支付记录不存在
	ErrPaymentNotFound = errors.New("支付记录不存在")
	// ErrMethodUnsupported 未注册该支付方式的网关
	ErrMethodUnsupported = errors.New("不支持的支付方式")
)
