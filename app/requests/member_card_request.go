package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

// CreateMemberCardRequest 开卡请求
type CreateMemberCardRequest struct {
	UserID uint64 `json:"user_id" valid:"required"`
}

// ValidateCreateMemberCard 校验开卡请求
func ValidateCreateMemberCard(c *gin.Context) (*CreateMemberCardRequest, error) {
	var req CreateMemberCardRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	rules := govalidator.MapData{
		"user_id": []string{"required"},
	}

	messages := govalidator.MapData{
		"user_id": []string{
			"required:用户 ID 不能为空",
		},
	}

	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	validator := govalidator.New(opts)
	if errs := validator.ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	return &req, nil
}

// RechargeRequest 线下充值请求（员工操作现金等方式）
type RechargeRequest struct {
	Amount     string `json:"amount" valid:"required"`
	Method     string `json:"method" valid:"required"`
	OperatorID uint64 `json:"operator_id" valid:"required"`
	Remark     string `json:"remark"`
}

// ValidateRecharge 校验线下充值请求
func ValidateRecharge(c *gin.Context) (*RechargeRequest, error) {
	var req RechargeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	rules := govalidator.MapData{
		"amount":      []string{"required"},
		"method":      []string{"required", "in:cash,alipay,wechat"},
		"operator_id": []string{"required"},
	}

	messages := govalidator.MapData{
		"amount": []string{
			"required:充值金额不能为空",
		},
		"method": []string{
			"required:支付方式不能为空",
			"in:支付方式必须是 cash、alipay 或 wechat",
		},
		"operator_id": []string{
			"required:操作员 ID 不能为空",
		},
	}

	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	validator := govalidator.New(opts)
	if errs := validator.ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	// 金额必须是合法的正数
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("充值金额格式不正确: %s", req.Amount)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("充值金额必须大于 0")
	}
	if amount.Exponent() < -2 {
		return nil, fmt.Errorf("充值金额最多保留两位小数")
	}

	return &req, nil
}

// ParsedAmount 解析后的金额
func (r *RechargeRequest) ParsedAmount() decimal.Decimal {
	amount, _ := decimal.NewFromString(r.Amount)
	return amount
}
