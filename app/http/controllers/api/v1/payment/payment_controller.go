package payment

import (
	"errors"

	"github.com/gin-gonic/gin"

	paymodel "petstore/app/models/payment"
	"petstore/app/requests"
	"petstore/app/services"
	"petstore/pkg/config"
	"petstore/pkg/logger"
	"petstore/pkg/response"
)

type PaymentsController struct {
	service *services.PaymentService
}

func NewPaymentsController(service *services.PaymentService) *PaymentsController {
	return &PaymentsController{service: service}
}

// Store 创建支付请求
func (pc *PaymentsController) Store(c *gin.Context) {
	// 1. 请求验证
	request, err := requests.ValidateCreatePayment(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	// 2. 创建支付
	input := &services.CreatePaymentInput{
		UserID:      request.UserID,
		Amount:      request.ParsedAmount(),
		Subject:     request.Subject,
		Description: request.Description,
		RelatedID:   request.RelatedID,
		RelatedType: request.ParsedRelatedType(),
		Method:      request.ParsedMethod(),
		ReturnURL:   config.GetString("payment.return_url"),
		NotifyURL:   config.GetString("payment.notify_url"),
	}

	result, err := pc.service.CreatePayment(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount),
			errors.Is(err, services.ErrMethodUnsupported):
			response.BadRequest(c, err, "支付参数不合法")
		case errors.Is(err, services.ErrGatewayUnavailable):
			response.Abort500(c, "支付网关暂不可用，请稍后再试")
		default:
			response.ServerError(c, err, "创建支付失败")
		}
		return
	}

	response.Data(c, result)
}

// Notify 支付宝异步通知
//
// 无论处理结果如何都必须以 HTTP 200 应答，body 为 success/fail，
// 否则网关会按重试策略反复投递。
func (pc *PaymentsController) Notify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		logger.ErrorString("Payment", "Notify", "解析回调表单失败: "+err.Error())
		c.String(200, "fail")
		return
	}

	err := pc.service.HandleNotify(c.Request.Context(), paymodel.MethodAlipay, c.Request.Form)
	if err != nil {
		// 验签失败、订单不存在等，应答 fail 让网关稍后重试
		logger.ErrorString("Payment", "Notify", "回调处理失败: "+err.Error())
		c.String(200, "fail")
		return
	}

	c.String(200, "success")
}

// Show 查询支付状态
//
// 待支付订单默认向网关实时同步，前端轮询该接口获知支付结果。
func (pc *PaymentsController) Show(c *gin.Context) {
	outTradeNo := c.Param("out_trade_no")
	sync := c.DefaultQuery("sync", "1") != "0"

	p, err := pc.service.QueryPaymentStatus(c.Request.Context(), outTradeNo, sync)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			response.Abort404(c, "支付记录不存在")
		case errors.Is(err, services.ErrGatewayTimeout):
			response.Abort500(c, "网关查询超时，请稍后重试")
		default:
			response.ServerError(c, err, "查询支付状态失败")
		}
		return
	}

	response.Data(c, p)
}
