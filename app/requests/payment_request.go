package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"

	"petstore/app/models/payment"
)

// CreatePaymentRequest 创建支付单请求
type CreatePaymentRequest struct {
	UserID      uint64 `json:"user_id" valid:"required"`
	Amount      string `json:"amount" valid:"required"`
	Method      string `json:"method" valid:"required"`
	Subject     string `json:"subject" valid:"required"`
	Description string `json:"description"`
	RelatedID   uint64 `json:"related_id" valid:"required"`
	RelatedType string `json:"related_type" valid:"required"`
}

// ValidateCreatePayment 校验创建支付单请求
func ValidateCreatePayment(c *gin.Context) (*CreatePaymentRequest, error) {
	var req CreatePaymentRequest

	// 1. 首先绑定 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	// 2. 验证规则
	rules := govalidator.MapData{
		"user_id":      []string{"required"},
		"amount":       []string{"required"},
		"method":       []string{"required", "in:alipay,wechat"},
		"subject":      []string{"required", "min:1", "max:256"},
		"related_id":   []string{"required"},
		"related_type": []string{"required", "in:member_card_recharge,product,appointment"},
	}

	// 3. 验证消息
	messages := govalidator.MapData{
		"user_id": []string{
			"required:用户 ID 不能为空",
		},
		"amount": []string{
			"required:支付金额不能为空",
		},
		"method": []string{
			"required:支付方式不能为空",
			"in:支付方式必须是 alipay 或 wechat",
		},
		"subject": []string{
			"required:订单标题不能为空",
			"max:订单标题长度不能超过 256 个字符",
		},
		"related_id": []string{
			"required:关联业务 ID 不能为空",
		},
		"related_type": []string{
			"required:关联业务类型不能为空",
			"in:关联业务类型无效",
		},
	}

	// 4. 开始验证
	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	validator := govalidator.New(opts)
	if errs := validator.ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	// 5. 金额必须是合法的正数，且不超过两位小数
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("支付金额格式不正确: %s", req.Amount)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("支付金额必须大于 0")
	}
	if amount.Exponent() < -2 {
		return nil, fmt.Errorf("支付金额最多保留两位小数")
	}

	return &req, nil
}

// ParsedAmount 解析后的金额
func (r *CreatePaymentRequest) ParsedAmount() decimal.Decimal {
	amount, _ := decimal.NewFromString(r.Amount)
	return amount
}

// ParsedMethod 解析后的支付方式
func (r *CreatePaymentRequest) ParsedMethod() payment.Method {
	return payment.Method(r.Method)
}

// ParsedRelatedType 解析后的关联业务类型
func (r *CreatePaymentRequest) ParsedRelatedType() payment.RelatedType {
	return payment.RelatedType(r.RelatedType)
}
