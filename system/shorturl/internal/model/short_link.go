package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"shortlink/pkg/core/model/common"

	"gorm.io/gorm"
)

const DefaultTopic = "uncategorized"

// 创建来源
const (
	CreatedFromWeb = "web"
	CreatedFromAPI = "api"
	CreatedFromCLI = "cli"
)

// ShortLink 短链接模型
type ShortLink struct {
	common.Model
	OriginalURL     string     `gorm:"type:varchar(2048);not null;comment:原始URL" json:"originalUrl"`
	URLHash         string     `gorm:"type:char(64);not null;uniqueIndex:uk_owner_url,priority:2;comment:原始URL哈希" json:"-"`
	ShortCode       string     `gorm:"type:varchar(32);not null;uniqueIndex;comment:短码" json:"shortCode"`
	CustomAlias     *string    `gorm:"type:varchar(32);uniqueIndex;comment:自定义别名" json:"customAlias,omitempty"`
	Topic           string     `gorm:"type:varchar(50);not null;default:uncategorized;index;comment:主题" json:"topic"`
	OwnerID         int64      `gorm:"not null;uniqueIndex:uk_owner_url,priority:1;comment:所属用户" json:"ownerId"`
	Clicks          int64      `gorm:"not null;default:0;comment:点击次数" json:"clicks"`
	LastAccessed    *time.Time `gorm:"comment:最后访问时间" json:"lastAccessed,omitempty"`
	IsActive        bool       `gorm:"not null;default:true;comment:是否启用" json:"isActive"`
	ExpiresAt       *time.Time `gorm:"index;comment:过期时间" json:"expiresAt,omitempty"`
	CreatedFrom     string     `gorm:"type:varchar(10);not null;default:web;comment:创建来源" json:"createdFrom"`
	ClientIP        string     `gorm:"type:varchar(64);comment:创建者IP" json:"-"`
	ClientUserAgent string     `gorm:"type:varchar(512);comment:创建者UA" json:"-"`
}

// TableName 设置表名
func (ShortLink) TableName() string {
	return "short_links"
}

// BeforeSave 时间统一按 UTC 存储，sqlite 按字符串比较时间
func (s *ShortLink) BeforeSave(tx *gorm.DB) error {
	if s.ExpiresAt != nil {
		t := s.ExpiresAt.UTC()
		s.ExpiresAt = &t
	}
	if s.URLHash == "" && s.OriginalURL != "" {
		s.URLHash = HashURL(s.OriginalURL)
	}
	return nil
}

// IsExpired 是否已过期
func (s *ShortLink) IsExpired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return !s.ExpiresAt.After(now)
}

// IsResolvable 启用且未过期
func (s *ShortLink) IsResolvable(now time.Time) bool {
	return s.IsActive && !s.IsExpired(now)
}

// HashURL 去重使用的URL摘要
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
