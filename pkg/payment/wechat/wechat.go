// Package wechat 微信支付网关适配（Native 扫码支付）
package wechat

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/native"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"

	"petstore/config"
	"petstore/pkg/logger"
	"petstore/pkg/payment/types"
)

// Gateway 微信支付网关
//
// 走 Native 下单，返回二维码内容供前端生成付款码。
// 回调验签依赖微信平台证书体系，本部署未接入证书下载器，
// 微信订单的结算统一由查询轮询路径驱动。
type Gateway struct {
	client    *native.NativeApiService
	appID     string
	mchID     string
	notifyURL string
	ready     bool
}

// NewGateway 创建微信支付网关
func NewGateway(cfg config.WechatConfig) *Gateway {
	g := &Gateway{
		appID:     cfg.AppID,
		mchID:     cfg.MchID,
		notifyURL: cfg.NotifyURL,
	}

	if cfg.AppID == "" || cfg.MchID == "" || cfg.PrivateKey == "" {
		logger.WarnString("微信支付", "初始化", "微信支付配置不完整，网关处于未就绪状态")
		return g
	}

	mchPrivateKey, err := utils.LoadPrivateKey(cfg.PrivateKey)
	if err != nil {
		logger.ErrorString("微信支付", "初始化", "加载商户私钥失败："+err.Error())
		return g
	}

	client, err := core.NewClient(context.Background(),
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.SerialNo, mchPrivateKey, cfg.APIv3Key),
	)
	if err != nil {
		logger.ErrorString("微信支付", "初始化", "创建客户端失败："+err.Error())
		return g
	}

	g.client = &native.NativeApiService{Client: client}
	g.ready = true
	logger.InfoString("微信支付", "初始化", "客户端已创建")
	return g
}

// IsReady 网关凭证是否配置完整
func (g *Gateway) IsReady() bool {
	return g.ready
}

// CreatePayment Native 下单，返回二维码内容
func (g *Gateway) CreatePayment(ctx context.Context, req *types.CreateRequest) (*types.CreateResult, error) {
	if !g.ready {
		return nil, types.ErrNotConfigured
	}

	notifyURL := req.NotifyURL
	if notifyURL == "" {
		notifyURL = g.notifyURL
	}

	// 微信金额单位为分
	total := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	resp, result, err := g.client.Prepay(ctx, native.PrepayRequest{
		Appid:       core.String(g.appID),
		Mchid:       core.String(g.mchID),
		Description: core.String(req.Subject),
		OutTradeNo:  core.String(req.OutTradeNo),
		NotifyUrl:   core.String(notifyURL),
		Amount: &native.Amount{
			Total:    core.Int64(total),
			Currency: core.String("CNY"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("创建微信支付失败: %w", err)
	}
	if result != nil && result.Response != nil && result.Response.StatusCode != 200 {
		return nil, fmt.Errorf("创建微信支付失败，状态码: %d", result.Response.StatusCode)
	}

	codeURL := ""
	if resp.CodeUrl != nil {
		codeURL = *resp.CodeUrl
	}

	return &types.CreateResult{
		QRCode:      codeURL,
		RawResponse: codeURL,
	}, nil
}

// QueryPayment 按商户订单号查询交易
func (g *Gateway) QueryPayment(ctx context.Context, outTradeNo string) (*types.QueryResult, error) {
	if !g.ready {
		return nil, types.ErrNotConfigured
	}

	resp, _, err := g.client.QueryOrderByOutTradeNo(ctx, native.QueryOrderByOutTradeNoRequest{
		OutTradeNo: core.String(outTradeNo),
		Mchid:      core.String(g.mchID),
	})
	if err != nil {
		return nil, fmt.Errorf("查询微信交易失败: %w", err)
	}

	tradeNo := ""
	if resp.TransactionId != nil {
		tradeNo = *resp.TransactionId
	}
	tradeState := ""
	if resp.TradeState != nil {
		tradeState = *resp.TradeState
	}
	amount := decimal.Zero
	if resp.Amount != nil && resp.Amount.Total != nil {
		amount = decimal.New(*resp.Amount.Total, -2)
	}

	return &types.QueryResult{
		OutTradeNo:  outTradeNo,
		TradeNo:     tradeNo,
		TradeStatus: toTradeStatus(tradeState),
		TotalAmount: amount,
		RawResponse: fmt.Sprintf("transaction_id=%s&trade_state=%s", tradeNo, tradeState),
	}, nil
}

// VerifyCallback 微信回调验签未接入，始终拒绝
//
// 接入需要配置平台证书下载器，当前微信订单由轮询路径完成结算。
func (g *Gateway) VerifyCallback(values url.Values) (*types.Notification, error) {
	return nil, types.ErrNotConfigured
}

// toTradeStatus 微信交易状态到内部状态的映射
func toTradeStatus(state string) types.TradeStatus {
	switch state {
	case "SUCCESS":
		return types.TradeStatusSuccess
	case "CLOSED", "REVOKED", "PAYERROR":
		return types.TradeStatusClosed
	default:
		return types.TradeStatusWaitPay
	}
}
