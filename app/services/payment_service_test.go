package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petstore/app/models/payment"
	"petstore/app/repositories"
	"petstore/pkg/payment/types"
)

func TestGenerateOutTradeNo(t *testing.T) {
	no := GenerateOutTradeNo("PAY", 42)
	parts := strings.Split(no, "_")
	require.Len(t, parts, 4)
	assert.Equal(t, "PAY", parts[0])
	assert.Equal(t, "42", parts[1])
	assert.Len(t, parts[3], 8)

	// 两次生成不重复
	assert.NotEqual(t, no, GenerateOutTradeNo("PAY", 42))
}

func TestCreatePayment(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{
		ready:        true,
		createResult: &types.CreateResult{PayURL: "https://openapi.alipay.com/gateway.do?x=1", RawResponse: "raw"},
	})
	ctx := context.Background()

	result, err := env.svc.CreatePayment(ctx, &CreatePaymentInput{
		UserID:      1,
		Amount:      decimal.NewFromInt(100),
		Subject:     "会员卡充值",
		RelatedID:   1,
		RelatedType: payment.RelatedMemberCardRecharge,
		Method:      payment.MethodAlipay,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.OutTradeNo)
	assert.Equal(t, "https://openapi.alipay.com/gateway.do?x=1", result.PayURL)

	p, err := env.payments.GetByOutTradeNo(ctx, result.OutTradeNo)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
}

func TestCreatePayment_InvalidInput(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{ready: true})
	ctx := context.Background()

	_, err := env.svc.CreatePayment(ctx, &CreatePaymentInput{
		UserID: 1,
		Amount: decimal.NewFromInt(-10),
		Method: payment.MethodAlipay,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.svc.CreatePayment(ctx, &CreatePaymentInput{
		UserID: 1,
		Amount: decimal.NewFromInt(10),
		Method: payment.Method("paypal"),
	})
	assert.ErrorIs(t, err, ErrMethodUnsupported)
}

func TestCreatePayment_GatewayUnavailable(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{ready: false})
	ctx := context.Background()

	_, err := env.svc.CreatePayment(ctx, &CreatePaymentInput{
		UserID:      1,
		Amount:      decimal.NewFromInt(100),
		Subject:     "会员卡充值",
		RelatedID:   1,
		RelatedType: payment.RelatedMemberCardRecharge,
		Method:      payment.MethodAlipay,
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	// 支付记录保留 pending 供人工对账，不会被静默丢弃
	var count int64
	require.NoError(t, env.db.Model(&payment.Payment{}).
		Where("status = ?", payment.StatusPending).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleNotify_Success(t *testing.T) {
	gw := &fakeGateway{ready: true}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(200))

	gw.notification = &types.Notification{
		OutTradeNo:  p.OutTradeNo,
		TradeNo:     "2026090122001",
		TradeStatus: types.TradeStatusSuccess,
		TotalAmount: p.Amount,
		Raw:         "raw-notify",
	}

	require.NoError(t, env.svc.HandleNotify(ctx, payment.MethodAlipay, url.Values{}))

	// 支付转为 PAID
	got, err := env.payments.GetByOutTradeNo(ctx, p.OutTradeNo)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, got.Status)
	assert.Equal(t, "2026090122001", got.TradeNo)

	// 会员卡入账且流水落库
	gotCard, err := env.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, gotCard.Balance.Equal(decimal.NewFromInt(200)))

	records, err := env.cards.ListRechargeRecords(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026090122001", records[0].TransactionNo)
}

func TestHandleNotify_DuplicateCallback(t *testing.T) {
	gw := &fakeGateway{ready: true}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(100))

	gw.notification = &types.Notification{
		OutTradeNo:  p.OutTradeNo,
		TradeNo:     "trade-1",
		TradeStatus: types.TradeStatusSuccess,
		TotalAmount: p.Amount,
	}

	// 网关重复投递同一通知，第二次幂等确认
	require.NoError(t, env.svc.HandleNotify(ctx, payment.MethodAlipay, url.Values{}))
	require.NoError(t, env.svc.HandleNotify(ctx, payment.MethodAlipay, url.Values{}))

	// 只入账一次
	gotCard, err := env.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, gotCard.Balance.Equal(decimal.NewFromInt(100)))

	records, err := env.cards.ListRechargeRecords(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHandleNotify_VerifyFailed(t *testing.T) {
	gw := &fakeGateway{ready: true, verifyErr: types.ErrVerifyFailed}
	env := newTestEnv(t, gw)

	err := env.svc.HandleNotify(context.Background(), payment.MethodAlipay, url.Values{})
	assert.ErrorIs(t, err, ErrVerifyFailed)
}

func TestHandleNotify_PaymentNotFound(t *testing.T) {
	gw := &fakeGateway{
		ready: true,
		notification: &types.Notification{
			OutTradeNo:  "PAY_UNKNOWN",
			TradeNo:     "trade-1",
			TradeStatus: types.TradeStatusSuccess,
		},
	}
	env := newTestEnv(t, gw)

	err := env.svc.HandleNotify(context.Background(), payment.MethodAlipay, url.Values{})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestHandleNotify_Closed(t *testing.T) {
	gw := &fakeGateway{ready: true}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(100))

	gw.notification = &types.Notification{
		OutTradeNo:  p.OutTradeNo,
		TradeStatus: types.TradeStatusClosed,
	}

	require.NoError(t, env.svc.HandleNotify(ctx, payment.MethodAlipay, url.Values{}))

	got, err := env.payments.GetByOutTradeNo(ctx, p.OutTradeNo)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, got.Status)

	// 未支付成功的关闭不触发入账
	gotCard, _ := env.cards.GetByID(ctx, card.ID)
	assert.True(t, gotCard.Balance.IsZero())
}

func TestQueryPaymentStatus_SyncSettles(t *testing.T) {
	gw := &fakeGateway{ready: true}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(150))

	gw.queryResult = &types.QueryResult{
		TradeNo:     "trade-q1",
		TradeStatus: types.TradeStatusSuccess,
		TotalAmount: p.Amount,
	}

	got, err := env.svc.QueryPaymentStatus(ctx, p.OutTradeNo, true)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, got.Status)

	// 轮询路径与回调路径走同一结算例程，同样触发入账
	gotCard, err := env.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, gotCard.Balance.Equal(decimal.NewFromInt(150)))
}

func TestQueryPaymentStatus_NoSync(t *testing.T) {
	gw := &fakeGateway{ready: true, queryResult: &types.QueryResult{TradeStatus: types.TradeStatusSuccess}}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(100))

	// 不同步网关时返回本地状态
	got, err := env.svc.QueryPaymentStatus(ctx, p.OutTradeNo, false)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)

	_, err = env.svc.QueryPaymentStatus(ctx, "PAY_UNKNOWN", false)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestQueryPaymentStatus_GatewayTimeout(t *testing.T) {
	gw := &fakeGateway{ready: true, blockQuery: true}
	env := newTestEnv(t, gw)

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(100))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := env.svc.QueryPaymentStatus(ctx, p.OutTradeNo, true)
	assert.ErrorIs(t, err, ErrGatewayTimeout)

	// 超时不改变支付状态
	got, err := env.payments.GetByOutTradeNo(context.Background(), p.OutTradeNo)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
}

func TestSettle_FrozenCardKeepsPaid(t *testing.T) {
	gw := &fakeGateway{ready: true}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	require.NoError(t, env.cards.Freeze(ctx, card.ID))

	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(100))
	gw.notification = &types.Notification{
		OutTradeNo:  p.OutTradeNo,
		TradeNo:     "trade-1",
		TradeStatus: types.TradeStatusSuccess,
		TotalAmount: p.Amount,
	}

	// 钱在网关侧已实际支付，入账失败不能回滚 PAID
	require.NoError(t, env.svc.HandleNotify(ctx, payment.MethodAlipay, url.Values{}))

	got, err := env.payments.GetByOutTradeNo(ctx, p.OutTradeNo)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, got.Status)

	// 余额未变化，任务转入对账队列
	gotCard, _ := env.cards.GetByID(ctx, card.ID)
	assert.True(t, gotCard.Balance.IsZero())
	require.Len(t, env.reconciler.payments, 1)
	assert.Equal(t, p.OutTradeNo, env.reconciler.payments[0].OutTradeNo)
}

func TestSettle_DualEntryRace(t *testing.T) {
	gw := &fakeGateway{ready: true}
	env := newTestEnv(t, gw)
	ctx := context.Background()

	card := env.seedCard(t)
	p := env.seedPendingPayment(t, card.ID, decimal.NewFromInt(100))

	gw.notification = &types.Notification{
		OutTradeNo:  p.OutTradeNo,
		TradeNo:     "trade-1",
		TradeStatus: types.TradeStatusSuccess,
		TotalAmount: p.Amount,
	}
	gw.queryResult = &types.QueryResult{
		TradeNo:     "trade-1",
		TradeStatus: types.TradeStatusSuccess,
		TotalAmount: p.Amount,
	}

	// 回调与轮询并发抵达，守卫更新保证副作用至多执行一次
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.svc.HandleNotify(ctx, payment.MethodAlipay, url.Values{}))
		}()
		go func() {
			defer wg.Done()
			_, err := env.svc.QueryPaymentStatus(ctx, p.OutTradeNo, true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	gotCard, err := env.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, gotCard.Balance.Equal(decimal.NewFromInt(100)),
		"期望余额 100，实际 %s", gotCard.Balance)

	records, err := env.cards.ListRechargeRecords(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHandleNotify_UnsupportedMethod(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{ready: true})

	err := env.svc.HandleNotify(context.Background(), payment.MethodWechat, url.Values{})
	assert.ErrorIs(t, err, ErrMethodUnsupported)
}

func TestFulfillmentRegistry_UnknownType(t *testing.T) {
	registry := NewFulfillmentRegistry()

	// 未注册的关联类型按成功处理，不影响支付状态
	err := registry.Dispatch(context.Background(), &payment.Payment{
		OutTradeNo:  "PAY_1",
		RelatedType: payment.RelatedType("mystery"),
	})
	assert.NoError(t, err)
}

func TestCardRechargeHandler_MissingCardID(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{ready: true})
	handler := NewCardRechargeHandler(env.cards)

	err := handler.Fulfill(context.Background(), &payment.Payment{
		OutTradeNo:  "PAY_1",
		Amount:      decimal.NewFromInt(100),
		RelatedType: payment.RelatedMemberCardRecharge,
	})
	assert.Error(t, err)
}

func TestCardRechargeHandler_CardNotFound(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{ready: true})
	handler := NewCardRechargeHandler(env.cards)

	err := handler.Fulfill(context.Background(), &payment.Payment{
		OutTradeNo:  "PAY_1",
		Amount:      decimal.NewFromInt(100),
		RelatedID:   9999,
		RelatedType: payment.RelatedMemberCardRecharge,
	})
	assert.ErrorIs(t, err, repositories.ErrCardNotFound)
}
