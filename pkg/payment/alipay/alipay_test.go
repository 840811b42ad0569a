package alipay

import (
	"context"
	"net/url"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"petstore/config"
	"petstore/pkg/logger"
	"petstore/pkg/payment/types"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func TestNewGateway_MissingKeys(t *testing.T) {
	// 密钥缺失时网关降级为未就绪，不会 panic
	g := NewGateway(config.AlipayConfig{})
	assert.False(t, g.IsReady())

	_, err := g.CreatePayment(context.Background(), &types.CreateRequest{
		OutTradeNo: "PAY_1",
		Amount:     decimal.NewFromInt(100),
		Subject:    "会员卡充值",
	})
	assert.ErrorIs(t, err, types.ErrNotConfigured)

	_, err = g.QueryPayment(context.Background(), "PAY_1")
	assert.ErrorIs(t, err, types.ErrNotConfigured)

	_, err = g.VerifyCallback(url.Values{})
	assert.ErrorIs(t, err, types.ErrNotConfigured)
}
