package mvc

import (
	"context"

	errorc "shortlink/pkg/core/err"

	"gorm.io/gorm"
)

// Scope 查询条件，gorm 实现下即 *gorm.DB
type Scope = *gorm.DB

// GormDaoImpl GORM数据访问实现
type GormDaoImpl[T any] struct {
	db *gorm.DB
}

// NewGormDao 创建GORM数据访问实例
func NewGormDao[T any](db *gorm.DB) IBaseDao[T] {
	return &GormDaoImpl[T]{
		db: db,
	}
}

// WithTx 使用事务创建临时的IBaseDao实例
func (d *GormDaoImpl[T]) WithTx(tx interface{}) IBaseDao[T] {
	if gormDB, ok := tx.(*gorm.DB); ok {
		return &GormDaoImpl[T]{
			db: gormDB,
		}
	}
	return d
}

func (d *GormDaoImpl[T]) Create(ctx context.Context, entity *T) error {
	err := d.db.WithContext(ctx).Create(entity).Error
	if err != nil {
		return errorc.New("数据库操作失败", err).DB()
	}
	return nil
}

func (d *GormDaoImpl[T]) FindById(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	err := d.db.WithContext(ctx).First(&entity, id).Error
	if err != nil {
		return nil, errorc.New("查询记录失败", err).DB()
	}
	return &entity, nil
}

func (d *GormDaoImpl[T]) UpdateColumnsById(ctx context.Context, id interface{}, columns map[string]interface{}) (int64, error) {
	result := d.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return 0, errorc.New("更新记录失败", result.Error).DB()
	}
	return result.RowsAffected, nil
}

func (d *GormDaoImpl[T]) FindPage(ctx context.Context, page *Page, scope func(db Scope) Scope) ([]*T, int64, error) {
	var entities []*T
	var total int64

	db := d.db.WithContext(ctx).Model(new(T))
	if scope != nil {
		db = scope(db)
	}

	err := db.Count(&total).Error
	if err != nil {
		return nil, 0, errorc.New("查询记录失败", err).DB()
	}

	db = db.Scopes(Paginate(page))
	if page != nil && page.Sort != nil {
		db = db.Order(page.Sort)
	}

	err = db.Find(&entities).Error
	if err != nil {
		return nil, 0, errorc.New("查询记录失败", err).DB()
	}

	return entities, total, nil
}

func (d *GormDaoImpl[T]) ExistsByMap(ctx context.Context, conditions map[string]interface{}) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(new(T)).Where(conditions).Limit(1).Count(&count).Error
	if err != nil {
		return false, errorc.New("查询记录失败", err).DB()
	}
	return count > 0, nil
}
