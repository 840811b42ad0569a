package repositories

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"petstore/app/models/member"
	"petstore/app/models/payment"
	"petstore/app/models/user"
	"petstore/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// newTestDB 每个测试独立的内存数据库
//
// 共享缓存模式让同一连接串的多个连接看到同一份数据，
// 连接数限制为 1 以符合 SQLite 的单写者模型。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&payment.Payment{},
		&member.MemberCard{},
		&member.CardRechargeRecord{},
	))
	return db
}

// seedUser 创建测试用户
func seedUser(t *testing.T, db *gorm.DB, username string) *user.User {
	t.Helper()

	u := &user.User{Username: username, Role: "member"}
	require.NoError(t, db.Create(u).Error)
	return u
}
