package service

import (
	"context"
	"errors"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/mvc"
	"shortlink/system/shorturl/internal/dao"
	"shortlink/system/shorturl/internal/model"
)

// ErrGenerationExhausted 重试次数内未能得到可用短码
var ErrGenerationExhausted = errors.New("short code generation exhausted")

// LinkService 短链接业务逻辑层
type LinkService struct {
	*mvc.BaseService[model.ShortLink]
	Dao *dao.LinkDao
	log *logger.Log
	err *errorc.ErrorBuilder
}

// NewLinkService 创建短链接服务实例
func NewLinkService(daoInstance *dao.LinkDao, log *logger.Log) *LinkService {
	return &LinkService{
		BaseService: mvc.NewBaseService[model.ShortLink](daoInstance),
		Dao:         daoInstance,
		log:         log.WithEntryName("LinkService"),
		err:         errorc.NewErrorBuilder("LinkService"),
	}
}

// GenerateUniqueCode 生成唯一短码（带冲突重试），超过重试次数返回 GenerationExhausted
func (s *LinkService) GenerateUniqueCode(ctx context.Context, codeLength int, maxRetries int) (string, error) {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	if maxRetries <= 0 {
		maxRetries = 10
	}

	for i := 0; i < maxRetries; i++ {
		code, err := GenerateShortCode(codeLength)
		if err != nil {
			return "", s.err.New("生成短码失败", err).WithCode(errorc.ErrorCodeInternal)
		}
		if IsReservedCode(code) {
			continue
		}

		exists, err := s.Dao.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		s.log.WithField("code", code).WithField("attempt", i+1).Debug("短码冲突，重新生成")
	}

	return "", s.err.New("生成唯一短码失败（超过重试次数）", ErrGenerationExhausted).WithCode(errorc.ErrorCodeInternal)
}
