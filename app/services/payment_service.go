// Package services 统一支付服务
//
// 封装支付创建、状态查询、回调处理逻辑。支付状态机由本包独占：
// 回调、轮询两条入口最终汇聚到同一个结算例程，
// PENDING -> PAID 的迁移及其业务副作用至多执行一次。
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"petstore/app/models/payment"
	"petstore/app/repositories"
	"petstore/pkg/logger"
	pkgpayment "petstore/pkg/payment"
	"petstore/pkg/payment/types"
)

// GatewayTimeout 网关调用超时时间
const GatewayTimeout = 10 * time.Second

// CreatePaymentInput 创建支付的入参
type CreatePaymentInput struct {
	UserID      uint64
	Amount      decimal.Decimal
	Subject     string
	Description string
	RelatedID   uint64
	RelatedType payment.RelatedType
	Method      payment.Method
	ReturnURL   string
	NotifyURL   string
}

// CreatePaymentResult 创建支付的结果
type CreatePaymentResult struct {
	PaymentID  uint64 `json:"payment_id"`
	OutTradeNo string `json:"out_trade_no"`
	PayURL     string `json:"pay_url,omitempty"`
	QRCode     string `json:"qr_code,omitempty"`
	Message    string `json:"message"`
}

// Reconciler 履约失败后的对账能力
type Reconciler interface {
	EnqueueRecharge(ctx context.Context, p *payment.Payment, reason string) error
}

// PaymentService 统一支付服务
//
// 依赖在启动时显式注入，不持有任何进程级可变状态，
// 多实例部署下的正确性完全依赖存储层的事务保证。
type PaymentService struct {
	payments   *repositories.PaymentRepository
	gateways   *pkgpayment.Registry
	fulfill    *FulfillmentRegistry
	reconciler Reconciler // 可为 nil，nil 时仅记录日志
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	payments *repositories.PaymentRepository,
	gateways *pkgpayment.Registry,
	fulfill *FulfillmentRegistry,
	reconciler Reconciler,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		gateways:   gateways,
		fulfill:    fulfill,
		reconciler: reconciler,
	}
}

// GenerateOutTradeNo 生成商户订单号
//
// 格式：前缀_用户ID_时间戳_随机后缀，全局唯一且一次性，
// 同一订单号不会被复用。
func GenerateOutTradeNo(prefix string, userID uint64) string {
	timestamp := time.Now().Format("20060102150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s_%s", prefix, userID, timestamp, suffix)
}

// CreatePayment 创建支付请求
//
// 先落库 pending 支付记录，再请求网关下单。网关未配置时返回
// ErrGatewayUnavailable，支付记录保留 pending 供人工对账，
// 不会被静默丢弃。
func (s *PaymentService) CreatePayment(ctx context.Context, input *CreatePaymentInput) (*CreatePaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !input.Method.Valid() {
		return nil, ErrMethodUnsupported
	}

	outTradeNo := GenerateOutTradeNo("PAY", input.UserID)
	logger.InfoString("支付", "创建",
		fmt.Sprintf("user_id=%d, amount=%s, out_trade_no=%s", input.UserID, input.Amount.StringFixed(2), outTradeNo))

	p := &payment.Payment{
		UserID:      input.UserID,
		OutTradeNo:  outTradeNo,
		Amount:      input.Amount,
		Status:      payment.StatusPending,
		Method:      input.Method,
		Subject:     input.Subject,
		Description: input.Description,
		RelatedID:   input.RelatedID,
		RelatedType: input.RelatedType,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("创建支付记录失败: %w", err)
	}

	gw := s.gateways.Get(input.Method)
	if gw == nil {
		return nil, ErrMethodUnsupported
	}
	if !gw.IsReady() {
		logger.ErrorString("支付", "创建", "支付网关未初始化，out_trade_no="+outTradeNo)
		return nil, ErrGatewayUnavailable
	}

	gctx, cancel := context.WithTimeout(ctx, GatewayTimeout)
	defer cancel()

	result, err := gw.CreatePayment(gctx, &types.CreateRequest{
		OutTradeNo:  outTradeNo,
		Amount:      input.Amount,
		Subject:     input.Subject,
		Description: input.Description,
		ReturnURL:   input.ReturnURL,
		NotifyURL:   input.NotifyURL,
	})
	if err != nil {
		// 下单失败：记录原因，支付记录保留 pending 供人工对账
		logger.ErrorString("支付", "创建", "网关下单失败："+err.Error())
		logger.LogIf(s.payments.SaveErrorMessage(ctx, outTradeNo, err.Error()))
		if gctx.Err() != nil {
			return nil, ErrGatewayTimeout
		}
		return nil, fmt.Errorf("创建支付请求失败: %w", err)
	}

	logger.LogIf(s.payments.SaveResponseData(ctx, outTradeNo, result.RawResponse))

	return &CreatePaymentResult{
		PaymentID:  p.ID,
		OutTradeNo: outTradeNo,
		PayURL:     result.PayURL,
		QRCode:     result.QRCode,
		Message:    "支付请求已生成，请完成支付",
	}, nil
}

// HandleNotify 处理网关异步通知（回调入口）
//
// 验签失败返回 ErrVerifyFailed，记录不存在返回 ErrPaymentNotFound；
// 已支付订单的重复通知幂等返回 nil，不会重复触发业务副作用。
func (s *PaymentService) HandleNotify(ctx context.Context, method payment.Method, values url.Values) error {
	gw := s.gateways.Get(method)
	if gw == nil {
		return ErrMethodUnsupported
	}

	notification, err := gw.VerifyCallback(values)
	if err != nil {
		logger.WarnString("支付", "通知", "通知验证失败："+err.Error())
		return fmt.Errorf("%w: %s", ErrVerifyFailed, err.Error())
	}

	p, err := s.payments.GetByOutTradeNo(ctx, notification.OutTradeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnString("支付", "通知", "支付记录不存在："+notification.OutTradeNo)
			return ErrPaymentNotFound
		}
		return fmt.Errorf("查询支付记录失败: %w", err)
	}

	// 重放保护：已处理的通知直接确认
	if p.Status == payment.StatusPaid {
		logger.InfoString("支付", "通知", "支付已处理："+p.OutTradeNo)
		return nil
	}

	switch {
	case notification.TradeStatus.IsSuccess():
		return s.settle(ctx, p, notification.TradeNo, notification.Raw)
	case notification.TradeStatus.IsClosed():
		updated, err := s.payments.MarkCancelled(ctx, p.OutTradeNo, notification.Raw)
		if err != nil {
			return fmt.Errorf("标记支付取消失败: %w", err)
		}
		if updated {
			logger.InfoString("支付", "通知", "支付取消/关闭："+p.OutTradeNo)
		}
		return nil
	default:
		// 等待付款等中间状态不改变支付记录
		return nil
	}
}

// QueryPaymentStatus 查询支付状态（轮询入口）
//
// 待支付且 syncFromGateway 为真时向网关查询最新状态，
// 网关报告成功则执行与回调路径完全相同的结算例程。
// 网关超时不改变支付状态，返回 ErrGatewayTimeout 供调用方重试。
func (s *PaymentService) QueryPaymentStatus(ctx context.Context, outTradeNo string, syncFromGateway bool) (*payment.Payment, error) {
	p, err := s.payments.GetByOutTradeNo(ctx, outTradeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("查询支付记录失败: %w", err)
	}

	if p.Status != payment.StatusPending || !syncFromGateway {
		return p, nil
	}

	gw := s.gateways.Get(p.Method)
	if gw == nil || !gw.IsReady() {
		logger.WarnString("支付", "查询", "支付网关未初始化，跳过状态同步："+outTradeNo)
		return p, nil
	}

	gctx, cancel := context.WithTimeout(ctx, GatewayTimeout)
	defer cancel()

	result, err := gw.QueryPayment(gctx, outTradeNo)
	if err != nil {
		if gctx.Err() != nil {
			return p, ErrGatewayTimeout
		}
		// 查询失败不改变支付状态
		logger.WarnString("支付", "查询", "网关查询失败："+err.Error())
		return p, nil
	}

	switch {
	case result.TradeStatus.IsSuccess():
		if err := s.settle(ctx, p, result.TradeNo, result.RawResponse); err != nil {
			return p, err
		}
		logger.InfoString("支付", "查询", fmt.Sprintf("支付状态同步成功：%s -> PAID", outTradeNo))
	case result.TradeStatus.IsClosed():
		if _, err := s.payments.MarkCancelled(ctx, outTradeNo, result.RawResponse); err != nil {
			return p, fmt.Errorf("标记支付取消失败: %w", err)
		}
	}

	// 返回最新的持久化状态
	return s.payments.GetByOutTradeNo(ctx, outTradeNo)
}

// settle 结算：PENDING -> PAID 迁移加业务履约
//
// 迁移由存储层的守卫更新保证至多成功一次，回调与轮询并发
// 结算同一订单时，只有赢得更新的一方执行履约。
func (s *PaymentService) settle(ctx context.Context, p *payment.Payment, tradeNo, rawData string) error {
	paidAt := time.Now()
	updated, err := s.payments.MarkPaid(ctx, p.OutTradeNo, tradeNo, rawData, paidAt)
	if err != nil {
		return fmt.Errorf("标记支付成功失败: %w", err)
	}
	if !updated {
		// 另一条入口已完成结算
		logger.InfoString("支付", "结算", "支付已由其他入口结算："+p.OutTradeNo)
		return nil
	}

	logger.InfoString("支付", "结算", "支付成功："+p.OutTradeNo)

	// 同步本地副本供履约使用
	p.Status = payment.StatusPaid
	p.TradeNo = tradeNo
	p.PaidAt = &paidAt

	s.dispatchFulfillment(ctx, p)
	return nil
}

// dispatchFulfillment 分发业务履约
//
// 支付在网关侧已真实成功且不可逆，履约失败只记录并转入对账，
// 绝不回滚 PAID 状态。
func (s *PaymentService) dispatchFulfillment(ctx context.Context, p *payment.Payment) {
	if err := s.fulfill.Dispatch(ctx, p); err != nil {
		logger.ErrorString("支付", "履约",
			fmt.Sprintf("履约失败，转入对账：out_trade_no=%s, err=%s", p.OutTradeNo, err.Error()))

		if s.reconciler != nil && p.RelatedType == payment.RelatedMemberCardRecharge {
			if qerr := s.reconciler.EnqueueRecharge(ctx, p, err.Error()); qerr != nil {
				logger.ErrorString("支付", "对账", "对账任务入队失败："+qerr.Error())
			}
		}
	}
}
