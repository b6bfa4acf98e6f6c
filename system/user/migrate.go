package user

import (
	"shortlink/pkg/core/logger"
	"shortlink/system/user/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移用户表
func AutoMigrate(db *gorm.DB, log *logger.Log) error {
	log.Info("开始迁移用户组件数据库表...")

	if err := db.AutoMigrate(&model.User{}); err != nil {
		log.WithErr(err).Error("迁移用户表失败")
		return err
	}

	log.Info("用户组件数据库表迁移完成")
	return nil
}
