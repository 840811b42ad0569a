package payment

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	paymodel "petstore/app/models/payment"
	"petstore/pkg/payment/types"
)

type stubGateway struct{ ready bool }

func (g *stubGateway) CreatePayment(ctx context.Context, req *types.CreateRequest) (*types.CreateResult, error) {
	return &types.CreateResult{}, nil
}

func (g *stubGateway) QueryPayment(ctx context.Context, outTradeNo string) (*types.QueryResult, error) {
	return &types.QueryResult{}, nil
}

func (g *stubGateway) VerifyCallback(values url.Values) (*types.Notification, error) {
	return &types.Notification{}, nil
}

func (g *stubGateway) IsReady() bool { return g.ready }

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	gw := &stubGateway{ready: true}

	registry.Register(paymodel.MethodAlipay, gw)

	assert.Same(t, gw, registry.Get(paymodel.MethodAlipay).(*stubGateway))
	assert.Nil(t, registry.Get(paymodel.MethodWechat))
}

func TestTradeStatus(t *testing.T) {
	assert.True(t, types.TradeStatusSuccess.IsSuccess())
	assert.False(t, types.TradeStatusWaitPay.IsSuccess())

	assert.True(t, types.TradeStatusClosed.IsClosed())
	assert.True(t, types.TradeStatusFinished.IsClosed())
	assert.False(t, types.TradeStatusSuccess.IsClosed())
}
