package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/mvc"
	"shortlink/system/shorturl/internal/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// LinkDao 短链接数据访问层
type LinkDao struct {
	mvc.IBaseDao[model.ShortLink]
	log *logger.Log
	err *errorc.ErrorBuilder
	DB  *gorm.DB
}

// NewLinkDao 创建短链接 DAO 实例
func NewLinkDao(db *gorm.DB, log *logger.Log) *LinkDao {
	return &LinkDao{
		IBaseDao: mvc.NewGormDao[model.ShortLink](db),
		log:      log.WithEntryName("LinkDao"),
		err:      errorc.NewErrorBuilder("LinkDao"),
		DB:       db,
	}
}

// FindByCode 根据短码查找，不判断是否可访问
func (d *LinkDao) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	var result model.ShortLink
	err := d.DB.WithContext(ctx).Where("short_code = ?", code).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, d.err.New("短链接不存在", err).NotFound()
		}
		return nil, d.err.New("查询短链接失败", err).DB()
	}
	return &result, nil
}

// FindActiveByCode 根据短码查找启用且未过期的短链接
func (d *LinkDao) FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.ShortLink, error) {
	var result model.ShortLink
	err := d.DB.WithContext(ctx).
		Where("short_code = ? AND is_active = ?", code, true).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, d.err.New("短链接不存在或已失效", err).NotFound()
		}
		return nil, d.err.New("查询短链接失败", err).DB()
	}
	return &result, nil
}

// FindByOwnerAndURL 查找用户已创建的同一URL
func (d *LinkDao) FindByOwnerAndURL(ctx context.Context, ownerID int64, url string) (*model.ShortLink, error) {
	var result model.ShortLink
	err := d.DB.WithContext(ctx).
		Where("owner_id = ? AND url_hash = ?", ownerID, model.HashURL(url)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, d.err.New("短链接不存在", err).NotFound()
		}
		return nil, d.err.New("查询短链接失败", err).DB()
	}
	return &result, nil
}

// ExistsByCode 检查短码是否已存在（含已停用）
func (d *LinkDao) ExistsByCode(ctx context.Context, code string) (bool, error) {
	exists, err := d.ExistsByMap(ctx, map[string]interface{}{"short_code": code})
	if err != nil {
		return false, d.err.New("检查短码是否存在失败", err).DB()
	}
	return exists, nil
}

// CreateIfAbsent 插入短链接，唯一约束冲突时：
// 别名已被占用返回 Conflict；同一用户同一URL已存在则返回已有记录
func (d *LinkDao) CreateIfAbsent(ctx context.Context, link *model.ShortLink) (*model.ShortLink, bool, error) {
	link.URLHash = model.HashURL(link.OriginalURL)

	err := d.DB.WithContext(ctx).Create(link).Error
	if err == nil {
		return link, true, nil
	}
	if !isDuplicateKey(err) {
		return nil, false, d.err.New("创建短链接失败", err).DB()
	}

	if link.CustomAlias != nil {
		taken, existErr := d.ExistsByCode(ctx, *link.CustomAlias)
		if existErr != nil {
			return nil, false, existErr
		}
		if taken {
			return nil, false, d.err.New("自定义别名已被占用", err).Conflict()
		}
	}

	existing, findErr := d.FindByOwnerAndURL(ctx, link.OwnerID, link.OriginalURL)
	if findErr == nil {
		return existing, false, nil
	}
	if !errorc.IsNotFound(findErr) {
		return nil, false, findErr
	}
	return nil, false, d.err.New("短码冲突", err).Conflict()
}

// IncrementClicks 原子递增点击次数并刷新最后访问时间
func (d *LinkDao) IncrementClicks(ctx context.Context, id int64, at time.Time) error {
	result := d.DB.WithContext(ctx).Model(&model.ShortLink{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"clicks":        gorm.Expr("clicks + ?", 1),
			"last_accessed": at.UTC(),
		})
	if result.Error != nil {
		return d.err.New("更新点击次数失败", result.Error).DB()
	}
	if result.RowsAffected == 0 {
		return d.err.New("短链接不存在", nil).NotFound()
	}
	return nil
}

// ListByOwner 用户的短链接，topic 为空时不过滤主题
func (d *LinkDao) ListByOwner(ctx context.Context, ownerID int64, topic string, limit int) ([]*model.ShortLink, error) {
	page := &mvc.Page{PageNum: 1, Size: limit, Sort: "created_at DESC, id DESC"}
	list, _, err := d.FindPage(ctx, page, func(db mvc.Scope) mvc.Scope {
		db = db.Where("owner_id = ?", ownerID)
		if topic != "" {
			db = db.Where("topic = ?", topic)
		}
		return db
	})
	if err != nil {
		return nil, d.err.New("查询用户短链接失败", err).DB()
	}
	return list, nil
}

// ListIDsByOwner 用户短链ID，用于统计聚合
func (d *LinkDao) ListIDsByOwner(ctx context.Context, ownerID int64, topic string) ([]int64, error) {
	var ids []int64
	db := d.DB.WithContext(ctx).Model(&model.ShortLink{}).Where("owner_id = ?", ownerID)
	if topic != "" {
		db = db.Where("topic = ?", topic)
	}
	if err := db.Pluck("id", &ids).Error; err != nil {
		return nil, d.err.New("查询用户短链ID失败", err).DB()
	}
	return ids, nil
}

// UpdateStatus 更新启用状态和过期时间，columns 只包含需要修改的列
func (d *LinkDao) UpdateStatus(ctx context.Context, id int64, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	affected, err := d.UpdateColumnsById(ctx, id, columns)
	if err != nil {
		return d.err.New("更新短链接状态失败", err).DB()
	}
	if affected == 0 {
		return d.err.New("短链接不存在", nil).NotFound()
	}
	return nil
}

// FindExpiredActive 查询已过期但仍启用的短链接
func (d *LinkDao) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]*model.ShortLink, error) {
	page := &mvc.Page{PageNum: 1, Size: limit, Sort: "id"}
	list, _, err := d.FindPage(ctx, page, func(db mvc.Scope) mvc.Scope {
		return db.Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now.UTC())
	})
	if err != nil {
		return nil, d.err.New("查询过期短链接失败", err).DB()
	}
	return list, nil
}

// DeactivateByIDs 批量停用
func (d *LinkDao) DeactivateByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := d.DB.WithContext(ctx).Model(&model.ShortLink{}).
		Where("id IN ? AND is_active = ?", ids, true).
		UpdateColumns(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, d.err.New("批量停用短链接失败", result.Error).DB()
	}
	return result.RowsAffected, nil
}

// isDuplicateKey 兼容 postgres/mysql/sqlite 的唯一约束冲突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
