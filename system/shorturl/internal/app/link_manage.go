package app

import (
	"context"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	errorc "shortlink/pkg/core/err"
	"shortlink/system/shorturl/internal/cache"
	"shortlink/system/shorturl/internal/model"
	"shortlink/system/shorturl/internal/service"
	"shortlink/utils"
)

// listLimit 单次列表返回的最大条数
const listLimit = 500

// CreateShortLinkRequest 创建短链接请求
type CreateShortLinkRequest struct {
	OriginalURL     string
	CustomAlias     string
	Topic           string
	ExpiresAt       *time.Time
	OwnerID         int64
	CreatedFrom     string
	ClientIP        string
	ClientUserAgent string
}

// UpdateLinkStatusRequest 修改启用状态或过期时间，ClearExpiry 为 true 时取消过期时间
type UpdateLinkStatusRequest struct {
	IsActive    *bool
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// CreateShortLink 创建短链接。返回的 created 为 false 表示同一用户已缩短过该URL，直接返回已有记录。
// 顺序：别名占用检查(409) -> 同URL去重 -> 写入；写入时的唯一约束冲突同样映射为 409。
// 成功后清除该用户的列表缓存。
func (a *App) CreateShortLink(ctx context.Context, req *CreateShortLinkRequest) (*model.ShortLink, bool, error) {
	originalURL := strings.TrimSpace(req.OriginalURL)
	if !utils.IsHTTPURL(originalURL) {
		return nil, false, a.err.New("无效的URL，必须是http或https地址", nil).ValidWithCtx()
	}

	topic := utils.NormalizeTopic(req.Topic)
	if topic == "" {
		topic = model.DefaultTopic
	}
	if n := utf8.RuneCountInString(topic); n < 2 || n > 50 {
		return nil, false, a.err.New("主题长度必须在2到50个字符之间", nil).ValidWithCtx()
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(a.now()) {
			return nil, false, a.err.New("过期时间必须晚于当前时间", nil).ValidWithCtx()
		}
		t := req.ExpiresAt.UTC()
		expiresAt = &t
	}

	alias := strings.TrimSpace(req.CustomAlias)
	if alias != "" {
		if reason := service.ValidateAlias(alias); reason != "" {
			return nil, false, a.err.New(reason, nil).ValidWithCtx()
		}
		taken, err := a.LinkService.Dao.ExistsByCode(ctx, alias)
		if err != nil {
			return nil, false, err
		}
		if taken {
			return nil, false, a.err.New("自定义别名已被占用", nil).Conflict()
		}
	}

	existing, err := a.LinkService.Dao.FindByOwnerAndURL(ctx, req.OwnerID, originalURL)
	if err == nil {
		return existing, false, nil
	}
	if !errorc.IsNotFound(err) {
		return nil, false, err
	}

	createdFrom := req.CreatedFrom
	if createdFrom == "" {
		createdFrom = model.CreatedFromWeb
	}

	attempts := 1
	if alias == "" {
		attempts = a.opts.ShortURL.MaxRetries
		if attempts <= 0 {
			attempts = 10
		}
	}

	for i := 0; i < attempts; i++ {
		link := &model.ShortLink{
			OriginalURL:     originalURL,
			Topic:           topic,
			OwnerID:         req.OwnerID,
			IsActive:        true,
			ExpiresAt:       expiresAt,
			CreatedFrom:     createdFrom,
			ClientIP:        req.ClientIP,
			ClientUserAgent: truncate(req.ClientUserAgent, 512),
		}
		if alias != "" {
			link.ShortCode = alias
			link.CustomAlias = &alias
		} else {
			code, genErr := a.LinkService.GenerateUniqueCode(ctx, a.opts.ShortURL.CodeLength, a.opts.ShortURL.MaxRetries)
			if genErr != nil {
				return nil, false, genErr
			}
			link.ShortCode = code
		}

		saved, created, createErr := a.LinkService.Dao.CreateIfAbsent(ctx, link)
		if createErr == nil {
			if created {
				a.invalidate(ctx, cache.OwnerListKey(req.OwnerID), cache.OwnerTopicKey(req.OwnerID, topic))
				a.log.WithTrace(ctx).WithUserID(req.OwnerID).WithLinkID(saved.ID).
					WithField("code", saved.ShortCode).Info("创建短链接")
			}
			return saved, created, nil
		}
		// 生成的短码在检查和写入之间被占用，换一个重试
		if alias == "" && errorc.HasCode(createErr, errorc.ErrorCodeConflict) {
			continue
		}
		return nil, false, createErr
	}

	return nil, false, a.err.New("生成唯一短码失败（写入冲突次数过多）", service.ErrGenerationExhausted).WithCode(errorc.ErrorCodeInternal)
}

// ListLinks 用户的短链接列表，topic 为空时返回全部。结果缓存 list-cache-ttl
func (a *App) ListLinks(ctx context.Context, ownerID int64, topic string) ([]*model.ShortLink, error) {
	topic = utils.NormalizeTopic(topic)
	key := cache.OwnerListKey(ownerID)
	if topic != "" {
		key = cache.OwnerTopicKey(ownerID, topic)
	}

	load := func() (interface{}, error) {
		return a.LinkService.Dao.ListByOwner(ctx, ownerID, topic, listLimit)
	}
	var links []*model.ShortLink
	if err := a.readThrough(ctx, key, &links, load); err != nil {
		return nil, err
	}
	if links == nil {
		links = []*model.ShortLink{}
	}
	return links, nil
}

// UpdateLinkStatus 修改启用状态或过期时间，仅限所有者。
// 会改变可访问性，必须清除 url:{code} 和该用户的列表缓存
func (a *App) UpdateLinkStatus(ctx context.Context, ownerID, id int64, req *UpdateLinkStatusRequest) (*model.ShortLink, error) {
	link, err := a.ownedLink(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	columns := map[string]interface{}{}
	if req.IsActive != nil {
		columns["is_active"] = *req.IsActive
	}
	switch {
	case req.ClearExpiry:
		columns["expires_at"] = nil
	case req.ExpiresAt != nil:
		columns["expires_at"] = req.ExpiresAt.UTC()
	}
	if len(columns) == 0 {
		return nil, a.err.New("没有需要更新的字段", nil).ValidWithCtx()
	}
	columns["updated_at"] = a.now().UTC()

	if err = a.LinkService.Dao.UpdateStatus(ctx, id, columns); err != nil {
		return nil, err
	}
	a.invalidate(ctx,
		cache.LinkKey(link.ShortCode),
		cache.OwnerListKey(ownerID),
		cache.OwnerTopicKey(ownerID, link.Topic),
	)

	updated, err := a.LinkService.FindById(ctx, id)
	if err != nil {
		return nil, a.err.New("查询短链接失败", err).DB()
	}
	a.log.WithTrace(ctx).WithUserID(ownerID).WithLinkID(id).WithFields(columns).Info("更新短链接状态")
	return updated, nil
}

// ownedLink 查询短链接并校验所有者
func (a *App) ownedLink(ctx context.Context, ownerID, id int64) (*model.ShortLink, error) {
	link, err := a.LinkService.FindById(ctx, id)
	if err != nil {
		if errorc.IsNotFound(err) {
			return nil, a.err.New("短链接不存在", err).NotFound()
		}
		return nil, a.err.New("查询短链接失败", err).DB()
	}
	if link.OwnerID != ownerID {
		return nil, a.err.New("无权访问该短链接", nil).Forbidden()
	}
	return link, nil
}

// readThrough 读穿缓存；缓存本身出错时直接读库
func (a *App) readThrough(ctx context.Context, key string, value interface{}, load func() (interface{}, error)) error {
	var loadErr error
	err := a.cache.Once(ctx, key, a.opts.ShortURL.ListCacheTTL, value, func() (interface{}, error) {
		v, err := load()
		loadErr = err
		return v, err
	})
	if err == nil {
		return nil
	}
	if loadErr != nil {
		return loadErr
	}

	a.log.WithTrace(ctx).WithErr(err).WithField("key", key).Warn("缓存不可用，直接读取")
	v, err := load()
	if err != nil {
		return err
	}
	return assign(value, v)
}

// truncate 按字节截断且不切断多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// assign 把 v 写入指针 dst，类型不一致时报错
func assign(dst interface{}, v interface{}) error {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return errorc.New("目标必须是非空指针", nil)
	}
	if v == nil {
		target.Elem().Set(reflect.Zero(target.Elem().Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(target.Elem().Type()) {
		target.Elem().Set(src)
		return nil
	}
	if src.Kind() == reflect.Ptr && src.Elem().Type().AssignableTo(target.Elem().Type()) {
		target.Elem().Set(src.Elem())
		return nil
	}
	return errorc.New("缓存值类型不匹配", nil)
}
