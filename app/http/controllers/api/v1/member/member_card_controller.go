package member

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"petstore/app/repositories"
	"petstore/app/requests"
	"petstore/pkg/response"
)

type MemberCardsController struct {
	cards *repositories.MemberCardRepository
}

func NewMemberCardsController(cards *repositories.MemberCardRepository) *MemberCardsController {
	return &MemberCardsController{cards: cards}
}

// Store 开卡
func (mc *MemberCardsController) Store(c *gin.Context) {
	request, err := requests.ValidateCreateMemberCard(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	card, err := mc.cards.Create(c.Request.Context(), request.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			response.Abort404(c, "用户不存在")
		case errors.Is(err, repositories.ErrCardExists):
			response.Abort400(c, "该用户已有会员卡")
		default:
			response.ServerError(c, err, "开卡失败")
		}
		return
	}

	response.Created(c, card)
}

// Show 查询会员卡
func (mc *MemberCardsController) Show(c *gin.Context) {
	card, err := mc.cards.GetByID(c.Request.Context(), cast.ToUint64(c.Param("id")))
	if err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			response.Abort404(c, "会员卡不存在")
			return
		}
		response.ServerError(c, err, "查询会员卡失败")
		return
	}

	response.Data(c, card)
}

// Recharge 线下充值
//
// 员工收取现金等方式后直接入账，与在线支付充值共用同一条
// 入账事务，写同一张流水表。
func (mc *MemberCardsController) Recharge(c *gin.Context) {
	request, err := requests.ValidateRecharge(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	operatorID := request.OperatorID
	record, err := mc.cards.ApplyRecharge(
		c.Request.Context(),
		cast.ToUint64(c.Param("id")),
		request.ParsedAmount(),
		request.Method,
		"", // 线下充值没有第三方交易号
		&operatorID,
		request.Remark,
	)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCardNotFound):
			response.Abort404(c, "会员卡不存在")
		case errors.Is(err, repositories.ErrCardNotActive):
			response.Abort400(c, "会员卡不在激活状态，无法充值")
		default:
			response.ServerError(c, err, "充值失败")
		}
		return
	}

	response.Data(c, record)
}

// Records 充值流水
func (mc *MemberCardsController) Records(c *gin.Context) {
	records, err := mc.cards.ListRechargeRecords(c.Request.Context(), cast.ToUint64(c.Param("id")))
	if err != nil {
		response.ServerError(c, err, "查询充值流水失败")
		return
	}

	response.Data(c, records)
}

// Freeze 冻结会员卡
func (mc *MemberCardsController) Freeze(c *gin.Context) {
	if err := mc.cards.Freeze(c.Request.Context(), cast.ToUint64(c.Param("id"))); err != nil {
		switch {
		case errors.Is(err, repositories.ErrCardNotFound):
			response.Abort404(c, "会员卡不存在")
		case errors.Is(err, repositories.ErrCardNotActive):
			response.Abort400(c, "只有激活状态的会员卡可以冻结")
		default:
			response.ServerError(c, err, "冻结会员卡失败")
		}
		return
	}

	response.Data(c, gin.H{"message": "会员卡已冻结"})
}

// Unfreeze 解冻会员卡
func (mc *MemberCardsController) Unfreeze(c *gin.Context) {
	if err := mc.cards.Unfreeze(c.Request.Context(), cast.ToUint64(c.Param("id"))); err != nil {
		switch {
		case errors.Is(err, repositories.ErrCardNotFound):
			response.Abort404(c, "会员卡不存在")
		case errors.Is(err, repositories.ErrCardNotActive):
			response.Abort400(c, "只有冻结状态的会员卡可以解冻")
		default:
			response.ServerError(c, err, "解冻会员卡失败")
		}
		return
	}

	response.Data(c, gin.H{"message": "会员卡已解冻"})
}

// Destroy 销卡
//
// 仅余额为零的卡可以销卡，历史流水随卡一并删除。
func (mc *MemberCardsController) Destroy(c *gin.Context) {
	if err := mc.cards.Cancel(c.Request.Context(), cast.ToUint64(c.Param("id"))); err != nil {
		switch {
		case errors.Is(err, repositories.ErrCardNotFound):
			response.Abort404(c, "会员卡不存在")
		case errors.Is(err, repositories.ErrCardHasBalance):
			response.Abort400(c, "会员卡仍有余额，请先退款或消费完毕")
		default:
			response.ServerError(c, err, "销卡失败")
		}
		return
	}

	response.Data(c, gin.H{"message": "会员卡已注销"})
}
