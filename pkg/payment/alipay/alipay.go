// Package alipay 支付宝网关适配
package alipay

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/smartwalle/alipay/v3"

	"petstore/config"
	"petstore/pkg/logger"
	"petstore/pkg/payment/types"
)

// Gateway 支付宝支付网关
//
// 密钥缺失或无效时网关处于未就绪状态，IsReady 返回 false，
// 调用方据此降级，而不是在启动时崩溃。
type Gateway struct {
	client    *alipay.Client
	appID     string
	notifyURL string
	returnURL string
	ready     bool
}

// NewGateway 创建支付宝网关
func NewGateway(cfg config.AlipayConfig) *Gateway {
	g := &Gateway{
		appID:     cfg.AppID,
		notifyURL: cfg.NotifyURL,
		returnURL: cfg.ReturnURL,
	}

	if cfg.AppID == "" || cfg.PrivateKey == "" || cfg.PublicKey == "" {
		logger.WarnString("支付宝", "初始化", "支付宝配置不完整，请设置 ALIPAY_APP_ID、ALIPAY_PRIVATE_KEY、ALIPAY_PUBLIC_KEY")
		return g
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		logger.ErrorString("支付宝", "初始化", "创建客户端失败："+err.Error())
		return g
	}

	if err := client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		logger.ErrorString("支付宝", "初始化", "加载支付宝公钥失败："+err.Error())
		return g
	}

	g.client = client
	g.ready = true
	logger.InfoString("支付宝", "初始化", fmt.Sprintf("客户端已创建，生产模式：%v", cfg.IsProduction))
	return g
}

// IsReady 网关凭证是否配置完整
func (g *Gateway) IsReady() bool {
	return g.ready
}

// CreatePayment 创建电脑网站支付，返回收银台跳转地址
func (g *Gateway) CreatePayment(ctx context.Context, req *types.CreateRequest) (*types.CreateResult, error) {
	if !g.ready {
		return nil, types.ErrNotConfigured
	}

	trade := alipay.TradePagePay{}
	trade.NotifyURL = req.NotifyURL
	if trade.NotifyURL == "" {
		trade.NotifyURL = g.notifyURL
	}
	trade.ReturnURL = req.ReturnURL
	if trade.ReturnURL == "" {
		trade.ReturnURL = g.returnURL
	}
	trade.Subject = req.Subject
	trade.OutTradeNo = req.OutTradeNo
	trade.TotalAmount = req.Amount.StringFixed(2)
	trade.ProductCode = "FAST_INSTANT_TRADE_PAY"

	payURL, err := g.client.TradePagePay(trade)
	if err != nil {
		return nil, fmt.Errorf("创建支付宝支付失败: %w", err)
	}

	return &types.CreateResult{
		PayURL:      payURL.String(),
		RawResponse: payURL.String(),
	}, nil
}

// QueryPayment 查询交易状态
func (g *Gateway) QueryPayment(ctx context.Context, outTradeNo string) (*types.QueryResult, error) {
	if !g.ready {
		return nil, types.ErrNotConfigured
	}

	rsp, err := g.client.TradeQuery(ctx, alipay.TradeQuery{OutTradeNo: outTradeNo})
	if err != nil {
		return nil, fmt.Errorf("查询支付宝交易失败: %w", err)
	}
	if rsp.Code != alipay.CodeSuccess {
		return nil, fmt.Errorf("查询支付宝交易失败: %s - %s", rsp.Code, rsp.SubMsg)
	}

	amount, err := decimal.NewFromString(rsp.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("解析交易金额失败: %w", err)
	}

	return &types.QueryResult{
		OutTradeNo:  rsp.OutTradeNo,
		TradeNo:     rsp.TradeNo,
		TradeStatus: toTradeStatus(rsp.TradeStatus),
		TotalAmount: amount,
		RawResponse: fmt.Sprintf("trade_no=%s&trade_status=%s&total_amount=%s", rsp.TradeNo, rsp.TradeStatus, rsp.TotalAmount),
	}, nil
}

// VerifyCallback 验证异步通知签名并解析为结构化通知
func (g *Gateway) VerifyCallback(values url.Values) (*types.Notification, error) {
	if !g.ready {
		return nil, types.ErrNotConfigured
	}

	// 必要字段校验，缺失即拒绝
	for _, field := range []string{"out_trade_no", "trade_no", "trade_status", "total_amount"} {
		if values.Get(field) == "" {
			logger.WarnString("支付宝", "通知验证", "异步通知缺少字段："+field)
			return nil, types.ErrVerifyFailed
		}
	}
	if values.Get("sign") == "" {
		logger.WarnString("支付宝", "通知验证", "异步通知缺少签名："+values.Get("out_trade_no"))
		return nil, types.ErrVerifyFailed
	}

	// DecodeNotification 内部完成验签
	noti, err := g.client.DecodeNotification(values)
	if err != nil {
		logger.WarnString("支付宝", "通知验证", "签名验证失败："+err.Error())
		return nil, types.ErrVerifyFailed
	}

	amount, err := decimal.NewFromString(noti.TotalAmount)
	if err != nil {
		logger.WarnString("支付宝", "通知验证", "金额字段非法："+noti.TotalAmount)
		return nil, types.ErrVerifyFailed
	}

	return &types.Notification{
		OutTradeNo:  noti.OutTradeNo,
		TradeNo:     noti.TradeNo,
		TradeStatus: toTradeStatus(noti.TradeStatus),
		TotalAmount: amount,
		Raw:         values.Encode(),
	}, nil
}

// toTradeStatus 支付宝交易状态到内部状态的映射
func toTradeStatus(s alipay.TradeStatus) types.TradeStatus {
	switch s {
	case alipay.TradeStatusSuccess:
		return types.TradeStatusSuccess
	case alipay.TradeStatusClosed:
		return types.TradeStatusClosed
	case alipay.TradeStatusFinished:
		return types.TradeStatusFinished
	default:
		return types.TradeStatusWaitPay
	}
}
