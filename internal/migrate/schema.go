// 包 migrate：首次运行时创建表格持久化所需的表
package migrate

import (
	"context"
	"database/sql"

	"carte-elus/internal/logger"
)

// 背景：TABLE_SOURCE=postgres 时服务从这些表读取；由 cmd/table-ingest 整表替换写入
// 约束：使用 IF NOT EXISTS，可重复执行；只建最小结构，不做数据迁移
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS deputes (
		dept_code TEXT NOT NULL,
		circo TEXT NOT NULL,
		dept_name TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		groupe TEXT NOT NULL DEFAULT '',
		groupe_abrev TEXT NOT NULL DEFAULT '',
		mandats INT NOT NULL DEFAULT 0,
		participation DOUBLE PRECISION NOT NULL DEFAULT 0,
		loyaute DOUBLE PRECISION NOT NULL DEFAULT 0,
		mail TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		facebook TEXT NOT NULL DEFAULT '',
		twitter TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (dept_code, circo)
	)`,
	`CREATE TABLE IF NOT EXISTS maires (
		commune_code TEXT PRIMARY KEY,
		commune_name TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		mandate_start DATE
	)`,
	`CREATE TABLE IF NOT EXISTS familles_politiques (
		commune_code TEXT PRIMARY KEY,
		nuance TEXT NOT NULL DEFAULT '',
		famille TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS table_imports (
		name TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		rows INT NOT NULL,
		skipped INT NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
