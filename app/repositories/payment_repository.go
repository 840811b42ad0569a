package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"petstore/app/models/payment"
	"petstore/pkg/database"
)

// PaymentRepository 支付记录仓库
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建仓库实例
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		db: database.DB,
	}
}

// NewPaymentRepositoryWithDB 使用指定数据库连接创建仓库实例
func NewPaymentRepositoryWithDB(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create 创建支付记录
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByOutTradeNo 根据商户订单号获取支付记录
func (r *PaymentRepository) GetByOutTradeNo(ctx context.Context, outTradeNo string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("out_trade_no = ?", outTradeNo).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByTradeNo 根据第三方交易号获取支付记录
func (r *PaymentRepository) GetByTradeNo(ctx context.Context, tradeNo string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("trade_no = ?", tradeNo).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveResponseData 记录网关下单返回数据
func (r *PaymentRepository) SaveResponseData(ctx context.Context, outTradeNo, responseData string) error {
	return r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("out_trade_no = ?", outTradeNo).
		Update("response_data", responseData).Error
}

// SaveErrorMessage 记录网关下单失败原因
func (r *PaymentRepository) SaveErrorMessage(ctx context.Context, outTradeNo, message string) error {
	return r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("out_trade_no = ?", outTradeNo).
		Update("error_message", message).Error
}

// MarkPaid 将待支付订单标记为已支付
//
// 带守卫的比较更新：只有持久化状态仍为 pending 的行才会被改写，
// 并发的回调与轮询同时结算同一订单时，只有一方的更新生效。
// 返回值 updated 表示本次调用是否真正完成了状态迁移。
func (r *PaymentRepository) MarkPaid(ctx context.Context, outTradeNo, tradeNo, notifyData string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("out_trade_no = ? AND status = ?", outTradeNo, payment.StatusPending).
		Updates(map[string]interface{}{
			"status":      payment.StatusPaid,
			"trade_no":    tradeNo,
			"notify_data": notifyData,
			"paid_at":     paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkCancelled 将待支付订单标记为已取消/关闭
//
// 与 MarkPaid 相同的守卫规则，终态行不会被改写。
func (r *PaymentRepository) MarkCancelled(ctx context.Context, outTradeNo, notifyData string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("out_trade_no = ? AND status = ?", outTradeNo, payment.StatusPending).
		Updates(map[string]interface{}{
			"status":      payment.StatusCancelled,
			"notify_data": notifyData,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
