// Package dbtest 为仓库测试提供挂在sqlmock上的gorm连接。
package dbtest

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/database"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewMock 返回使用项目gorm配置的连接和对应的mock。
// 测试结束时自动检查所有预期是否满足。
func NewMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("无法创建sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, database.NewGormConfig(zap.NewNop()))
	if err != nil {
		t.Fatalf("无法打开gorm: %v", err)
	}

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("sqlmock预期未满足: %v", err)
		}
		mockDB.Close()
	})
	return db, mock
}
