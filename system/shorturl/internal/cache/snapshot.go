package cache

import (
	"time"

	"shortlink/system/shorturl/internal/model"

	jsoniter "github.com/json-iterator/go"
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// linkSnapshot 缓存中的短链快照，保留接口输出隐藏的字段
type linkSnapshot struct {
	ID              int64      `json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	OriginalURL     string     `json:"originalUrl"`
	URLHash         string     `json:"urlHash"`
	ShortCode       string     `json:"shortCode"`
	CustomAlias     *string    `json:"customAlias,omitempty"`
	Topic           string     `json:"topic"`
	OwnerID         int64      `json:"ownerId"`
	Clicks          int64      `json:"clicks"`
	LastAccessed    *time.Time `json:"lastAccessed,omitempty"`
	IsActive        bool       `json:"isActive"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedFrom     string     `json:"createdFrom"`
	ClientIP        string     `json:"clientIp"`
	ClientUserAgent string     `json:"clientUserAgent"`
}

func toSnapshot(link *model.ShortLink) *linkSnapshot {
	return &linkSnapshot{
		ID:              link.ID,
		CreatedAt:       link.CreatedAt,
		UpdatedAt:       link.UpdatedAt,
		OriginalURL:     link.OriginalURL,
		URLHash:         link.URLHash,
		ShortCode:       link.ShortCode,
		CustomAlias:     link.CustomAlias,
		Topic:           link.Topic,
		OwnerID:         link.OwnerID,
		Clicks:          link.Clicks,
		LastAccessed:    link.LastAccessed,
		IsActive:        link.IsActive,
		ExpiresAt:       link.ExpiresAt,
		CreatedFrom:     link.CreatedFrom,
		ClientIP:        link.ClientIP,
		ClientUserAgent: link.ClientUserAgent,
	}
}

func (s *linkSnapshot) toLink() *model.ShortLink {
	link := &model.ShortLink{
		OriginalURL:     s.OriginalURL,
		URLHash:         s.URLHash,
		ShortCode:       s.ShortCode,
		CustomAlias:     s.CustomAlias,
		Topic:           s.Topic,
		OwnerID:         s.OwnerID,
		Clicks:          s.Clicks,
		LastAccessed:    s.LastAccessed,
		IsActive:        s.IsActive,
		ExpiresAt:       s.ExpiresAt,
		CreatedFrom:     s.CreatedFrom,
		ClientIP:        s.ClientIP,
		ClientUserAgent: s.ClientUserAgent,
	}
	link.ID = s.ID
	link.CreatedAt = s.CreatedAt
	link.UpdatedAt = s.UpdatedAt
	return link
}

// MarshalLink 按缓存快照格式编码短链
func MarshalLink(link *model.ShortLink) ([]byte, error) {
	return snapshotJSON.Marshal(toSnapshot(link))
}

// UnmarshalLink 解码 MarshalLink 的结果
func UnmarshalLink(b []byte) (*model.ShortLink, error) {
	var s linkSnapshot
	if err := snapshotJSON.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s.toLink(), nil
}
