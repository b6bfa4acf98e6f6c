package dto

import (
	"time"

	"shortlink/pkg/core/model/common"
)

// ShortenRequest 创建短链接请求，longUrl 与 originalUrl 等价
type ShortenRequest struct {
	OriginalURL string           `json:"originalUrl" validate:"required,httpurl" comment:"原始URL"`
	LongURL     string           `json:"longUrl" validate:"-"`
	CustomAlias string           `json:"customAlias" validate:"omitempty,alias" comment:"自定义别名"`
	Topic       string           `json:"topic" validate:"omitempty,topic" comment:"主题"`
	ExpiresAt   *common.FlexTime `json:"expiresAt"`
}

// UpdateStatusRequest 修改启用状态或过期时间
type UpdateStatusRequest struct {
	IsActive    *bool            `json:"isActive"`
	ExpiresAt   *common.FlexTime `json:"expiresAt"`
	ClearExpiry bool             `json:"clearExpiry"`
}

// ShortLinkDTO 短链接DTO
type ShortLinkDTO struct {
	ID           int64      `json:"id" comment:"ID"`
	ShortCode    string     `json:"shortCode" comment:"短码"`
	ShortURL     string     `json:"shortUrl" comment:"完整短链接"`
	OriginalURL  string     `json:"originalUrl" comment:"原始URL"`
	CustomAlias  *string    `json:"customAlias,omitempty" comment:"自定义别名"`
	Topic        string     `json:"topic" comment:"主题"`
	Clicks       int64      `json:"clicks" comment:"点击次数"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty" comment:"最后访问时间"`
	IsActive     bool       `json:"isActive" comment:"是否启用"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty" comment:"过期时间"`
	CreatedFrom  string     `json:"createdFrom" comment:"创建来源"`
	CreatedAt    time.Time  `json:"createdAt" comment:"创建时间"`
}
