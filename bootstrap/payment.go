package bootstrap

import (
	"time"

	btsConfig "petstore/config"

	"petstore/app/models/payment"
	"petstore/app/repositories"
	"petstore/app/services"
	"petstore/pkg/alert"
	"petstore/pkg/config"
	pkgpayment "petstore/pkg/payment"
	"petstore/pkg/payment/alipay"
	"petstore/pkg/payment/wechat"
	"petstore/pkg/reconcile"
	"petstore/pkg/redis"
)

// PaymentComponents 支付子系统的全部组件
type PaymentComponents struct {
	Service *services.PaymentService
	Cards   *repositories.MemberCardRepository
	Worker  *reconcile.Worker
}

// SetupPayment 组装支付子系统
//
// 网关、仓库、履约与对账組件在此显式装配并注入，
// 运行期没有任何全局单例参与支付流程。
func SetupPayment() *PaymentComponents {
	// 1. 支付网关
	gateways := pkgpayment.NewRegistry()
	gateways.Register(payment.MethodAlipay, alipay.NewGateway(btsConfig.LoadAlipayConfig()))
	gateways.Register(payment.MethodWechat, wechat.NewGateway(btsConfig.LoadWechatConfig()))

	// 2. 仓库
	payments := repositories.NewPaymentRepository()
	cards := repositories.NewMemberCardRepository()

	// 3. 履约注册表
	fulfill := services.NewFulfillmentRegistry()
	fulfill.Register(payment.RelatedMemberCardRecharge, services.NewCardRechargeHandler(cards))
	fulfill.Register(payment.RelatedProduct, services.NewProductHandler())

	// 4. 对账队列 + 后台 worker
	queue := reconcile.NewQueue(
		redis.GetRedis(redis.QueueDB),
		config.GetString("reconcile.queue_prefix"),
	)
	notifier := alert.NewService(config.GetString("reconcile.alert_webhook"), 5*time.Second)
	worker := reconcile.NewWorker(
		queue,
		services.NewCardRechargeApplier(cards),
		notifier,
		reconcile.WorkerConfig{
			WorkerCount:   config.GetInt("reconcile.worker_count"),
			MaxRetries:    config.GetInt("reconcile.max_retries"),
			RetryInterval: time.Duration(config.GetInt("reconcile.retry_interval")) * time.Second,
		},
	)
	worker.Start()

	// 5. 支付服务
	service := services.NewPaymentService(
		payments,
		gateways,
		fulfill,
		services.NewQueueReconciler(queue),
	)

	return &PaymentComponents{
		Service: service,
		Cards:   cards,
		Worker:  worker,
	}
}
