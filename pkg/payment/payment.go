// Package payment 支付网关注册表
package payment

import (
	paymodel "petstore/app/models/payment"
	"petstore/pkg/payment/types"
)

// Registry 支付方式到网关实例的注册表
//
// 网关在启动时注册，运行期只读，无需加锁。
type Registry struct {
	gateways map[paymodel.Method]types.Gateway
}

// NewRegistry 创建网关注册表
func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[paymodel.Method]types.Gateway),
	}
}

// Register 注册支付方式对应的网关
func (r *Registry) Register(method paymodel.Method, gateway types.Gateway) {
	r.gateways[method] = gateway
}

// Get 获取支付方式对应的网关，未注册返回 nil
func (r *Registry) Get(method paymodel.Method) types.Gateway {
	return r.gateways[method]
}
