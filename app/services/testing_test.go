package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"petstore/app/models/member"
	"petstore/app/models/payment"
	"petstore/app/models/user"
	"petstore/app/repositories"
	"petstore/pkg/logger"
	pkgpayment "petstore/pkg/payment"
	"petstore/pkg/payment/types"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&payment.Payment{},
		&member.MemberCard{},
		&member.CardRechargeRecord{},
	))
	return db
}

// fakeGateway 测试用支付网关
type fakeGateway struct {
	ready        bool
	createResult *types.CreateResult
	createErr    error
	queryResult  *types.QueryResult
	queryErr     error
	notification *types.Notification
	verifyErr    error
	blockQuery   bool // 查询阻塞到 ctx 超时，模拟网关无响应
}

func (g *fakeGateway) IsReady() bool { return g.ready }

func (g *fakeGateway) CreatePayment(ctx context.Context, req *types.CreateRequest) (*types.CreateResult, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createResult, nil
}

func (g *fakeGateway) QueryPayment(ctx context.Context, outTradeNo string) (*types.QueryResult, error) {
	if g.blockQuery {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	result := *g.queryResult
	result.OutTradeNo = outTradeNo
	return &result, nil
}

func (g *fakeGateway) VerifyCallback(values url.Values) (*types.Notification, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	n := *g.notification
	if v := values.Get("out_trade_no"); v != "" {
		n.OutTradeNo = v
	}
	return &n, nil
}

// capturingReconciler 记录对账入队调用
type capturingReconciler struct {
	payments []*payment.Payment
	reasons  []string
}

func (r *capturingReconciler) EnqueueRecharge(ctx context.Context, p *payment.Payment, reason string) error {
	r.payments = append(r.payments, p)
	r.reasons = append(r.reasons, reason)
	return nil
}

// testEnv 支付服务测试环境
type testEnv struct {
	db         *gorm.DB
	svc        *PaymentService
	gw         *fakeGateway
	payments   *repositories.PaymentRepository
	cards      *repositories.MemberCardRepository
	reconciler *capturingReconciler
}

func newTestEnv(t *testing.T, gw *fakeGateway) *testEnv {
	t.Helper()

	db := newTestDB(t)
	payments := repositories.NewPaymentRepositoryWithDB(db)
	cards := repositories.NewMemberCardRepositoryWithDB(db)

	gateways := pkgpayment.NewRegistry()
	gateways.Register(payment.MethodAlipay, gw)

	fulfill := NewFulfillmentRegistry()
	fulfill.Register(payment.RelatedMemberCardRecharge, NewCardRechargeHandler(cards))
	fulfill.Register(payment.RelatedProduct, NewProductHandler())

	reconciler := &capturingReconciler{}
	svc := NewPaymentService(payments, gateways, fulfill, reconciler)

	return &testEnv{
		db:         db,
		svc:        svc,
		gw:         gw,
		payments:   payments,
		cards:      cards,
		reconciler: reconciler,
	}
}

// seedCard 创建用户并开卡
func (e *testEnv) seedCard(t *testing.T) *member.MemberCard {
	t.Helper()

	u := &user.User{Username: "tester", Role: "member"}
	require.NoError(t, e.db.Create(u).Error)

	card, err := e.cards.Create(context.Background(), u.ID)
	require.NoError(t, err)
	return card
}

// seedPendingPayment 创建待支付的充值订单
func (e *testEnv) seedPendingPayment(t *testing.T, cardID uint64, amount decimal.Decimal) *payment.Payment {
	t.Helper()

	p := &payment.Payment{
		UserID:      1,
		OutTradeNo:  GenerateOutTradeNo("PAY", 1),
		Amount:      amount,
		Status:      payment.StatusPending,
		Method:      payment.MethodAlipay,
		Subject:     "会员卡充值",
		RelatedID:   cardID,
		RelatedType: payment.RelatedMemberCardRecharge,
	}
	require.NoError(t, e.payments.Create(context.Background(), p))
	return p
}
