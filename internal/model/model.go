package model

import (
	"context"

	"gorm.io/gorm"
	"terminal-terrace/video-lead/migrations"
	"terminal-terrace/video-lead/pkg/database"
)

// InitTable 执行 migrations 目录下的全部迁移
func InitTable(ctx context.Context, db *gorm.DB) error {
	return database.Migrate(ctx, db, migrations.FS)
}
