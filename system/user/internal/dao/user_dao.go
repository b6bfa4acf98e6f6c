package dao

import (
	"context"
	"errors"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/mvc"
	"shortlink/system/user/internal/model"

	"gorm.io/gorm"
)

// UserDao 用户数据访问层
type UserDao struct {
	mvc.IBaseDao[model.User]
	log *logger.Log
	err *errorc.ErrorBuilder
	db  *gorm.DB
}

func NewUserDao(db *gorm.DB, log *logger.Log) *UserDao {
	return &UserDao{
		IBaseDao: mvc.NewGormDao[model.User](db),
		log:      log,
		err:      errorc.NewErrorBuilder("UserDao"),
		db:       db,
	}
}

// FindByUsername 根据用户名查询
func (d *UserDao) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, d.err.New("用户不存在", err).NotFound()
		}
		return nil, d.err.New("查询用户失败", err).DB()
	}
	return &user, nil
}

// ExistsByUsername 检查用户名是否已注册
func (d *UserDao) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return d.ExistsByMap(ctx, map[string]interface{}{"username": username})
}

// Insert 写入用户，用户名唯一约束冲突返回 409
func (d *UserDao) Insert(ctx context.Context, user *model.User) error {
	err := d.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return d.err.New("用户名已被注册", err).Conflict()
		}
		return d.err.New("创建用户失败", err).DB()
	}
	return nil
}
