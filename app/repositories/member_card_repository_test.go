package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petstore/app/models/member"
)

func TestMemberCardRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")

	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, card.CardNumber, 16)
	assert.True(t, card.Balance.IsZero())
	assert.Equal(t, member.CardStatusActive, card.Status)

	// 同一用户不能重复开卡
	_, err = repo.Create(ctx, u.ID)
	assert.ErrorIs(t, err, ErrCardExists)

	// 不存在的用户不能开卡
	_, err = repo.Create(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemberCardRepository_ApplyRecharge(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)

	record, err := repo.ApplyRecharge(ctx, card.ID, decimal.NewFromInt(200), "alipay", "trade-1", nil, "在线充值")
	require.NoError(t, err)

	// 流水满足 balance_after = balance_before + amount
	assert.True(t, record.BalanceBefore.IsZero())
	assert.True(t, record.BalanceAfter.Equal(decimal.NewFromInt(200)))
	assert.Nil(t, record.OperatorID)

	got, err := repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(200)))
	assert.True(t, got.TotalRecharge.Equal(decimal.NewFromInt(200)))

	// 金额必须为正
	_, err = repo.ApplyRecharge(ctx, card.ID, decimal.Zero, "alipay", "trade-2", nil, "")
	assert.Error(t, err)
}

func TestMemberCardRepository_ApplyRechargeFrozen(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Freeze(ctx, card.ID))

	// 冻结的卡拒绝充值，余额与流水都不变
	_, err = repo.ApplyRecharge(ctx, card.ID, decimal.NewFromInt(50), "alipay", "trade-1", nil, "")
	assert.ErrorIs(t, err, ErrCardNotActive)

	got, err := repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	records, err := repo.ListRechargeRecords(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemberCardRepository_ConcurrentRecharges(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)

	// 并发充值不丢更新：最终余额等于充值之和
	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ApplyRecharge(ctx, card.ID, decimal.NewFromInt(10), "cash", "", nil, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(n*10)),
		"期望余额 %d，实际 %s", n*10, got.Balance)

	records, err := repo.ListRechargeRecords(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestMemberCardRepository_HasRechargeForTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)

	_, err = repo.ApplyRecharge(ctx, card.ID, decimal.NewFromInt(100), "alipay", "trade-1", nil, "")
	require.NoError(t, err)

	has, err := repo.HasRechargeForTransaction(ctx, "trade-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasRechargeForTransaction(ctx, "trade-unknown")
	require.NoError(t, err)
	assert.False(t, has)

	// 空交易号（线下现金）不参与幂等判断
	has, err = repo.HasRechargeForTransaction(ctx, "")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMemberCardRepository_FreezeUnfreeze(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Freeze(ctx, card.ID))
	got, _ := repo.GetByID(ctx, card.ID)
	assert.Equal(t, member.CardStatusFrozen, got.Status)

	// 重复冻结被状态守卫拒绝
	assert.ErrorIs(t, repo.Freeze(ctx, card.ID), ErrCardNotActive)

	require.NoError(t, repo.Unfreeze(ctx, card.ID))
	got, _ = repo.GetByID(ctx, card.ID)
	assert.Equal(t, member.CardStatusActive, got.Status)

	assert.ErrorIs(t, repo.Freeze(ctx, 9999), ErrCardNotFound)
}

func TestMemberCardRepository_Cancel(t *testing.T) {
	db := newTestDB(t)
	repo := NewMemberCardRepositoryWithDB(db)
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	card, err := repo.Create(ctx, u.ID)
	require.NoError(t, err)

	// 有余额的卡不能注销
	_, err = repo.ApplyRecharge(ctx, card.ID, decimal.NewFromInt(30), "cash", "", nil, "")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Cancel(ctx, card.ID), ErrCardHasBalance)

	// 余额清零后可以注销，流水级联删除，用户可重新开卡
	require.NoError(t, db.Model(&member.MemberCard{}).Where("id = ?", card.ID).
		Update("balance", decimal.Zero).Error)
	require.NoError(t, repo.Cancel(ctx, card.ID))

	_, err = repo.GetByID(ctx, card.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)

	records, err := repo.ListRechargeRecords(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = repo.Create(ctx, u.ID)
	assert.NoError(t, err)
}
