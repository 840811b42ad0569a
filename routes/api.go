package routes

import (
	memberctrl "petstore/app/http/controllers/api/v1/member"
	paymentctrl "petstore/app/http/controllers/api/v1/payment"
	"petstore/app/http/middlewares"
	"petstore/app/repositories"
	"petstore/app/services"

	"github.com/gin-gonic/gin"
)

// 路由限流配置
const (
	// 🌍 全局限流：每小时每IP 30000 请求
	GlobalRateLimit = "30000-H"
	// 💰 创建支付限流：每小时每IP 100 请求
	CreatePaymentLimit = "100-H"
	// 🔍 查询状态限流：每分钟每IP 300 请求（前端轮询入口）
	QueryStatusLimit = "300-M"
	// 📮 网关回调限流：每分钟 600 请求
	NotifyLimit = "600-M"
)

// RegisterAPIRoutes 注册所有 API 路由
func RegisterAPIRoutes(r *gin.Engine, paymentService *services.PaymentService, cards *repositories.MemberCardRepository) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.Recovery(),
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	// 💰 支付相关路由
	paymentRoutes := v1.Group("/payments")
	{
		pc := paymentctrl.NewPaymentsController(paymentService)

		// 创建支付请求
		// POST /v1/payments
		paymentRoutes.POST("",
			middlewares.LimitIP(CreatePaymentLimit),
			pc.Store,
		)

		// 支付宝异步通知（网关服务端调用，无法携带用户态）
		// POST /v1/payments/notify/alipay
		paymentRoutes.POST("/notify/alipay",
			middlewares.LimitIP(NotifyLimit),
			pc.Notify,
		)

		// 查询支付状态
		// GET /v1/payments/:out_trade_no
		paymentRoutes.GET("/:out_trade_no",
			middlewares.LimitIP(QueryStatusLimit),
			pc.Show,
		)
	}

	// 💳 会员卡相关路由
	cardRoutes := v1.Group("/member-cards")
	{
		mc := memberctrl.NewMemberCardsController(cards)

		cardRoutes.POST("", mc.Store)                    // 开卡
		cardRoutes.GET("/:id", mc.Show)                  // 查询会员卡
		cardRoutes.POST("/:id/recharge", mc.Recharge)    // 线下充值
		cardRoutes.GET("/:id/records", mc.Records)       // 充值流水
		cardRoutes.POST("/:id/freeze", mc.Freeze)        // 冻结
		cardRoutes.POST("/:id/unfreeze", mc.Unfreeze)    // 解冻
		cardRoutes.DELETE("/:id", mc.Destroy)            // 销卡
	}
}
