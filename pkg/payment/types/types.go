// Package types 支付网关的抽象接口和数据结构
package types

import (
	"context"
	"errors"
	"net/url"

	"github.com/shopspring/decimal"
)

// 网关层错误
var (
	// ErrNotConfigured 网关未配置或密钥无效，调用方应降级处理
	ErrNotConfigured = errors.New("支付网关未初始化，请检查密钥配置")
	// ErrVerifyFailed 异步通知验签失败或缺少必要字段
	ErrVerifyFailed = errors.New("异步通知验证失败")
)

// TradeStatus 第三方交易状态
type TradeStatus string

const (
	TradeStatusWaitPay  TradeStatus = "WAIT_BUYER_PAY" // 等待买家付款
	TradeStatusSuccess  TradeStatus = "TRADE_SUCCESS"  // 支付成功
	TradeStatusClosed   TradeStatus = "TRADE_CLOSED"   // 交易关闭
	TradeStatusFinished TradeStatus = "TRADE_FINISHED" // 交易完结（不可退款）
)

// IsSuccess 交易是否支付成功
func (s TradeStatus) IsSuccess() bool {
	return s == TradeStatusSuccess
}

// IsClosed 交易是否已关闭/完结（未成功支付的终态）
func (s TradeStatus) IsClosed() bool {
	return s == TradeStatusClosed || s == TradeStatusFinished
}

// CreateRequest 创建支付请求参数
type CreateRequest struct {
	OutTradeNo  string          // 商户订单号
	Amount      decimal.Decimal // 金额（元）
	Subject     string          // 商品标题
	Description string          // 商品描述
	ReturnURL   string          // 同步跳转地址
	NotifyURL   string          // 异步通知地址
}

// CreateResult 创建支付结果
type CreateResult struct {
	PayURL      string `json:"pay_url,omitempty"`  // 收银台跳转地址
	QRCode      string `json:"qr_code,omitempty"`  // 扫码支付二维码内容
	RawResponse string `json:"-"`                  // 网关原始返回，入库留痕
}

// QueryResult 查询支付结果
type QueryResult struct {
	OutTradeNo  string          // 商户订单号
	TradeNo     string          // 第三方交易号
	TradeStatus TradeStatus     // 交易状态
	TotalAmount decimal.Decimal // 交易金额
	RawResponse string          // 网关原始返回
}

// Notification 验签通过的异步通知
//
// 回调报文不以裸 map 流转：验签的同时完成字段校验，
// 缺少必要字段或签名无效的报文统一以 ErrVerifyFailed 拒绝。
type Notification struct {
	OutTradeNo  string          // 商户订单号
	TradeNo     string          // 第三方交易号
	TradeStatus TradeStatus     // 交易状态
	TotalAmount decimal.Decimal // 交易金额
	Raw         string          // 原始报文，入库留痕
}

// Gateway 支付网关能力抽象
//
// 核心流程只依赖此接口，不感知具体网关的签名和报文细节。
// 网关实例在启动时构造注入，不使用进程级单例。
type Gateway interface {
	// CreatePayment 创建支付请求，返回收银台地址或二维码
	CreatePayment(ctx context.Context, req *CreateRequest) (*CreateResult, error)
	// QueryPayment 查询远端交易状态
	QueryPayment(ctx context.Context, outTradeNo string) (*QueryResult, error)
	// VerifyCallback 验证异步通知的真实性并解析为结构化通知
	VerifyCallback(values url.Values) (*Notification, error)
	// IsReady 网关凭证是否配置完整
	IsReady() bool
}
