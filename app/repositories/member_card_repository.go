package repositories

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"petstore/app/models/member"
	"petstore/app/models/user"
	"petstore/pkg/database"
)

// MemberCardRepository 会员卡仓库
//
// 余额的读改写在数据库事务内对卡行加排他锁串行化，
// 同一张卡的并发充值不会交错。
type MemberCardRepository struct {
	db *gorm.DB
}

// NewMemberCardRepository 创建仓库实例
func NewMemberCardRepository() *MemberCardRepository {
	return &MemberCardRepository{
		db: database.DB,
	}
}

// NewMemberCardRepositoryWithDB 使用指定数据库连接创建仓库实例
func NewMemberCardRepositoryWithDB(db *gorm.DB) *MemberCardRepository {
	return &MemberCardRepository{db: db}
}

// lockForUpdate 行级排他锁
// SQLite 为单写者模型且不支持 FOR UPDATE，跳过锁子句
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Create 为用户开通会员卡，自动生成唯一卡号
func (r *MemberCardRepository) Create(ctx context.Context, userID uint64) (*member.MemberCard, error) {
	var card *member.MemberCard

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 用户必须存在
		var u user.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// 每个用户同一时间只允许一张卡
		var count int64
		if err := tx.Model(&member.MemberCard{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCardExists
		}

		// 生成未占用的卡号
		cardNumber, err := r.generateCardNumber(tx)
		if err != nil {
			return err
		}

		card = &member.MemberCard{
			UserID:      userID,
			CardNumber:  cardNumber,
			Balance:     decimal.Zero,
			Status:      member.CardStatusActive,
			ActivatedAt: time.Now(),
		}
		return tx.Create(card).Error
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// generateCardNumber 生成 16 位数字卡号，冲突时重试
func (r *MemberCardRepository) generateCardNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < 10; i++ {
		number := fmt.Sprintf("%016d", rand.Int63n(1e16))
		var count int64
		if err := tx.Model(&member.MemberCard{}).Where("card_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", errors.New("生成会员卡号失败，请重试")
}

// GetByID 根据卡 ID 获取会员卡
func (r *MemberCardRepository) GetByID(ctx context.Context, cardID uint64) (*member.MemberCard, error) {
	var card member.MemberCard
	err := r.db.WithContext(ctx).First(&card, cardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// GetByUserID 根据用户 ID 获取会员卡
func (r *MemberCardRepository) GetByUserID(ctx context.Context, userID uint64) (*member.MemberCard, error) {
	var card member.MemberCard
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// ApplyRecharge 会员卡充值
//
// 在一个事务内完成：锁定卡行、校验状态、更新余额与累计充值、
// 写入充值流水。余额变动与流水记录要么同时落库要么同时回滚。
func (r *MemberCardRepository) ApplyRecharge(
	ctx context.Context,
	cardID uint64,
	amount decimal.Decimal,
	method string,
	transactionNo string,
	operatorID *uint64,
	remark string,
) (*member.CardRechargeRecord, error) {
	if !amount.IsPositive() {
		return nil, errors.New("充值金额必须大于 0")
	}

	var record *member.CardRechargeRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行级锁串行化同一张卡的读改写
		var card member.MemberCard
		if err := lockForUpdate(tx).First(&card, cardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return err
		}

		if !card.IsActive() {
			return ErrCardNotActive
		}

		balanceBefore := card.Balance
		balanceAfter := balanceBefore.Add(amount)

		updates := map[string]interface{}{
			"balance":        balanceAfter,
			"total_recharge": card.TotalRecharge.Add(amount),
		}
		if err := tx.Model(&card).Updates(updates).Error; err != nil {
			return err
		}

		record = &member.CardRechargeRecord{
			MemberCardID:  cardID,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			PaymentMethod: method,
			TransactionNo: transactionNo,
			OperatorID:    operatorID,
			Remark:        remark,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// HasRechargeForTransaction 指定交易流水号是否已有充值记录
//
// 对账重试前的幂等检查，避免同一笔网关交易重复入账。
func (r *MemberCardRepository) HasRechargeForTransaction(ctx context.Context, transactionNo string) (bool, error) {
	if transactionNo == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&member.CardRechargeRecord{}).
		Where("transaction_no = ?", transactionNo).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRechargeRecords 查询会员卡的充值流水，按时间倒序
func (r *MemberCardRepository) ListRechargeRecords(ctx context.Context, cardID uint64) ([]member.CardRechargeRecord, error) {
	var records []member.CardRechargeRecord
	err := r.db.WithContext(ctx).
		Where("member_card_id = ?", cardID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// Freeze 冻结会员卡
func (r *MemberCardRepository) Freeze(ctx context.Context, cardID uint64) error {
	return r.updateStatus(ctx, cardID, member.CardStatusActive, member.CardStatusFrozen)
}

// Unfreeze 解冻会员卡
func (r *MemberCardRepository) Unfreeze(ctx context.Context, cardID uint64) error {
	return r.updateStatus(ctx, cardID, member.CardStatusFrozen, member.CardStatusActive)
}

// updateStatus 带前置状态守卫的状态更新
func (r *MemberCardRepository) updateStatus(ctx context.Context, cardID uint64, from, to member.CardStatus) error {
	result := r.db.WithContext(ctx).Model(&member.MemberCard{}).
		Where("id = ? AND status = ?", cardID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 卡不存在或状态不满足
		var count int64
		if err := r.db.WithContext(ctx).Model(&member.MemberCard{}).Where("id = ?", cardID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrCardNotFound
		}
		return ErrCardNotActive
	}
	return nil
}

// Cancel 注销会员卡
//
// 仅允许余额为零时注销；硬删除卡行并级联清除充值流水，
// 之后同一用户可以重新开卡。
func (r *MemberCardRepository) Cancel(ctx context.Context, cardID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card member.MemberCard
		if err := lockForUpdate(tx).First(&card, cardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return err
		}

		if !card.Balance.IsZero() {
			return ErrCardHasBalance
		}

		if err := tx.Where("member_card_id = ?", cardID).Delete(&member.CardRechargeRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&card).Error
	})
}
