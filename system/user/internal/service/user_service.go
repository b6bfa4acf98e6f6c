package service

import (
	"context"
	"strings"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/mvc"
	"shortlink/system/user/internal/dao"
	"shortlink/system/user/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// UserService 用户服务
type UserService struct {
	*mvc.BaseService[model.User]
	dao *dao.UserDao
	log *logger.Log
	err *errorc.ErrorBuilder
}

func NewUserService(dao *dao.UserDao, log *logger.Log) *UserService {
	return &UserService{
		BaseService: mvc.NewBaseService[model.User](dao.IBaseDao),
		dao:         dao,
		log:         log,
		err:         errorc.NewErrorBuilder("UserService"),
	}
}

// Register 注册用户（自动散列密码）
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	exists, err := s.dao.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, s.err.New("用户名已被注册", nil).Conflict()
	}

	passwordHash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		Status:       model.UserStatusEnabled,
	}
	if err = s.dao.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 校验用户名和密码，用户不存在与密码错误返回同样的错误
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.dao.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errorc.IsNotFound(err) {
			return nil, s.err.New("用户名或密码错误", nil).NoAuth()
		}
		return nil, err
	}
	if !s.VerifyPassword(password, user.PasswordHash) {
		return nil, s.err.New("用户名或密码错误", nil).NoAuth()
	}
	if user.Status != model.UserStatusEnabled {
		return nil, s.err.New("用户已被禁用", nil).Forbidden()
	}
	return user, nil
}

// HashPassword 散列密码
func (s *UserService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", s.err.New("密码散列失败", err)
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *UserService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
