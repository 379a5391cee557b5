package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"
)

// ErrBootstrapScriptMissing 表示启动脚本文件不存在
var ErrBootstrapScriptMissing = errors.New("启动SQL脚本不存在")

// RunBootstrapScript 读取并执行启动SQL脚本（建表、约束、视图、成就种子数据）。
// 脚本必须是幂等的，因为每次启动都会完整执行一次。
func RunBootstrapScript(ctx context.Context, db *gorm.DB, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBootstrapScriptMissing, path)
		}
		return fmt.Errorf("无法读取启动SQL脚本 %s: %w", path, err)
	}
	if strings.TrimSpace(string(script)) == "" {
		return fmt.Errorf("启动SQL脚本 %s 为空", path)
	}

	// 没有参数的Exec走simple protocol，允许多条语句
	if err := db.WithContext(ctx).Exec(string(script)).Error; err != nil {
		return fmt.Errorf("执行启动SQL脚本失败: %w", err)
	}
	return nil
}
