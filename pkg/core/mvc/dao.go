package mvc

import "context"

// IBaseDao 定义通用的数据访问接口
type IBaseDao[T any] interface {
	// Create 创建记录
	Create(ctx context.Context, entity *T) error
	// FindById 根据ID查询记录
	FindById(ctx context.Context, id interface{}) (*T, error)
	// UpdateColumnsById 根据ID更新指定列
	UpdateColumnsById(ctx context.Context, id interface{}, columns map[string]interface{}) (int64, error)
	// FindPage 分页查询，scope 用于追加查询条件
	FindPage(ctx context.Context, page *Page, scope func(db Scope) Scope) ([]*T, int64, error)
	// ExistsByMap 根据多个条件判断记录是否存在
	ExistsByMap(ctx context.Context, conditions map[string]interface{}) (bool, error)
	// WithTx 使用事务创建临时的IBaseDao实例
	WithTx(tx interface{}) IBaseDao[T]
}
