package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"petstore/app/models/payment"
)

func newPendingPayment(t *testing.T, repo *PaymentRepository, outTradeNo string) *payment.Payment {
	t.Helper()

	p := &payment.Payment{
		UserID:      1,
		OutTradeNo:  outTradeNo,
		Amount:      decimal.NewFromFloat(100.50),
		Status:      payment.StatusPending,
		Method:      payment.MethodAlipay,
		Subject:     "会员卡充值",
		RelatedID:   1,
		RelatedType: payment.RelatedMemberCardRecharge,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPaymentRepository_CreateAndGet(t *testing.T) {
	repo := NewPaymentRepositoryWithDB(newTestDB(t))
	ctx := context.Background()

	newPendingPayment(t, repo, "PAY_1_20260901_abc123")

	got, err := repo.GetByOutTradeNo(ctx, "PAY_1_20260901_abc123")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
	assert.True(t, got.Amount.Equal(decimal.NewFromFloat(100.50)))

	_, err = repo.GetByOutTradeNo(ctx, "PAY_NOT_EXIST")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentRepository_MarkPaid(t *testing.T) {
	repo := NewPaymentRepositoryWithDB(newTestDB(t))
	ctx := context.Background()

	newPendingPayment(t, repo, "PAY_1_1")

	updated, err := repo.MarkPaid(ctx, "PAY_1_1", "2026090122001", `{"trade_status":"TRADE_SUCCESS"}`, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByOutTradeNo(ctx, "PAY_1_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, got.Status)
	assert.Equal(t, "2026090122001", got.TradeNo)
	require.NotNil(t, got.PaidAt)
}

func TestPaymentRepository_MarkPaidIdempotent(t *testing.T) {
	repo := NewPaymentRepositoryWithDB(newTestDB(t))
	ctx := context.Background()

	newPendingPayment(t, repo, "PAY_1_1")

	updated, err := repo.MarkPaid(ctx, "PAY_1_1", "trade-1", "", time.Now())
	require.NoError(t, err)
	require.True(t, updated)

	// 第二条入口迟到，守卫更新不生效
	updated, err = repo.MarkPaid(ctx, "PAY_1_1", "trade-2", "", time.Now())
	require.NoError(t, err)
	assert.False(t, updated)

	// 交易号保持第一次结算的值
	got, err := repo.GetByOutTradeNo(ctx, "PAY_1_1")
	require.NoError(t, err)
	assert.Equal(t, "trade-1", got.TradeNo)
}

func TestPaymentRepository_MarkCancelledGuard(t *testing.T) {
	repo := NewPaymentRepositoryWithDB(newTestDB(t))
	ctx := context.Background()

	newPendingPayment(t, repo, "PAY_1_1")

	// 已支付的订单不能再被关闭通知改写
	updated, err := repo.MarkPaid(ctx, "PAY_1_1", "trade-1", "", time.Now())
	require.NoError(t, err)
	require.True(t, updated)

	cancelled, err := repo.MarkCancelled(ctx, "PAY_1_1", "")
	require.NoError(t, err)
	assert.False(t, cancelled)

	got, err := repo.GetByOutTradeNo(ctx, "PAY_1_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, got.Status)
}

func TestPaymentRepository_MarkCancelled(t *testing.T) {
	repo := NewPaymentRepositoryWithDB(newTestDB(t))
	ctx := context.Background()

	newPendingPayment(t, repo, "PAY_1_1")

	cancelled, err := repo.MarkCancelled(ctx, "PAY_1_1", `{"trade_status":"TRADE_CLOSED"}`)
	require.NoError(t, err)
	assert.True(t, cancelled)

	got, err := repo.GetByOutTradeNo(ctx, "PAY_1_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, got.Status)
}
