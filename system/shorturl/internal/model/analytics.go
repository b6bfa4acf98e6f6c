package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 设备分类
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"
)

const Unknown = "Unknown"

type UserAgentInfo struct {
	Browser  string `bson:"browser" json:"browser"`
	Version  string `bson:"version" json:"version"`
	OS       string `bson:"os" json:"os"`
	Platform string `bson:"platform" json:"platform"`
	Device   string `bson:"device" json:"device"`
}

type Geolocation struct {
	Country   string  `bson:"country" json:"country"`
	City      string  `bson:"city" json:"city"`
	Region    string  `bson:"region" json:"region"`
	Latitude  float64 `bson:"lat" json:"lat"`
	Longitude float64 `bson:"lon" json:"lon"`
	Timezone  string  `bson:"timezone" json:"timezone"`
}

// RedirectEvent 单次跳转事件
type RedirectEvent struct {
	EventID     string        `bson:"eventId" json:"eventId"`
	Timestamp   time.Time     `bson:"timestamp" json:"timestamp"`
	UserAgent   UserAgentInfo `bson:"userAgent" json:"userAgent"`
	Geolocation Geolocation   `bson:"geolocation" json:"geolocation"`
	IPAddress   string        `bson:"ipAddress" json:"ipAddress"`
	Referrer    string        `bson:"referrer" json:"referrer"`
	Language    string        `bson:"language" json:"language"`
}

// Analytics 每个短链一份统计文档
type Analytics struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ShortURLID    int64              `bson:"shortUrlId" json:"shortUrlId"`
	RedirectCount int64              `bson:"redirectCount" json:"redirectCount"`
	Redirects     []RedirectEvent    `bson:"redirects" json:"redirects"`
	DailyStats    map[string]int64   `bson:"dailyStats" json:"dailyStats"`
	DeviceStats   map[string]int64   `bson:"deviceStats" json:"deviceStats"`
	BrowserStats  map[string]int64   `bson:"browserStats" json:"browserStats"`
	CountryStats  map[string]int64   `bson:"countryStats" json:"countryStats"`
	LastAccessed  *time.Time         `bson:"lastAccessed,omitempty" json:"lastAccessed,omitempty"`
}

// KeyCount 分组计数
type KeyCount struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// AggregateStats 多个短链的聚合统计
type AggregateStats struct {
	TotalClicks int64      `json:"totalClicks"`
	UniqueUsers int64      `json:"uniqueUsers"`
	ByDate      []KeyCount `json:"clicksByDate"`
	ByOS        []KeyCount `json:"osType"`
	ByDevice    []KeyCount `json:"deviceType"`
}
