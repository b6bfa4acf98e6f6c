package mvc

import (
	"context"
)

// BaseService 基础服务实现
type BaseService[T any] struct {
	Dao IBaseDao[T]
}

// NewBaseService 创建基础服务实例
func NewBaseService[T any](dao IBaseDao[T]) *BaseService[T] {
	return &BaseService[T]{
		Dao: dao,
	}
}

func (s *BaseService[T]) Create(ctx context.Context, entity *T) error {
	return s.Dao.Create(ctx, entity)
}

func (s *BaseService[T]) FindById(ctx context.Context, id interface{}) (*T, error) {
	return s.Dao.FindById(ctx, id)
}
