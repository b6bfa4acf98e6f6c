package service

import (
	"net"
	"strings"

	"shortlink/system/shorturl/internal/model"

	"github.com/mssola/useragent"
	"github.com/oschwald/geoip2-golang"
)

// GeoLookup 按IP查询地理位置
type GeoLookup interface {
	Lookup(ip string) model.Geolocation
}

// Classify 解析UA和IP，无法识别的字段为 Unknown
func Classify(ip, userAgent string, geo GeoLookup) (model.UserAgentInfo, model.Geolocation) {
	info := model.UserAgentInfo{
		Browser:  model.Unknown,
		Version:  model.Unknown,
		OS:       model.Unknown,
		Platform: model.Unknown,
		Device:   model.DeviceOther,
	}

	if strings.TrimSpace(userAgent) != "" {
		ua := useragent.New(userAgent)
		if name, version := ua.Browser(); name != "" {
			info.Browser = name
			if version != "" {
				info.Version = version
			}
		}
		if os := ua.OS(); os != "" {
			info.OS = os
		}
		if platform := ua.Platform(); platform != "" {
			info.Platform = platform
		}
		info.Device = deviceOf(ua, userAgent)
	}

	location := unknownLocation()
	if geo != nil {
		location = geo.Lookup(ip)
	}
	return info, location
}

func deviceOf(ua *useragent.UserAgent, raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case ua.Bot() || strings.Contains(lower, "bot/") || strings.Contains(lower, "spider"):
		return model.DeviceOther
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		return model.DeviceTablet
	case strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		return model.DeviceTablet
	case ua.Mobile() || strings.Contains(lower, "mobi") || strings.Contains(lower, "iphone"):
		return model.DeviceMobile
	case ua.OS() != "":
		return model.DeviceDesktop
	}
	return model.DeviceOther
}

func unknownLocation() model.Geolocation {
	return model.Geolocation{
		Country:  model.Unknown,
		City:     model.Unknown,
		Region:   model.Unknown,
		Timezone: model.Unknown,
	}
}

// GeoIPLookup 基于 MaxMind mmdb 的地理位置查询，reader 为空时全部返回 Unknown
type GeoIPLookup struct {
	reader *geoip2.Reader
}

// OpenGeoIP 打开 mmdb 文件，路径为空时返回空查询器
func OpenGeoIP(path string) (*GeoIPLookup, error) {
	if path == "" {
		return &GeoIPLookup{}, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPLookup{reader: reader}, nil
}

func (g *GeoIPLookup) Lookup(ip string) model.Geolocation {
	location := unknownLocation()
	if g == nil || g.reader == nil {
		return location
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return location
	}

	record, err := g.reader.City(parsed)
	if err != nil {
		return location
	}
	if record.Country.IsoCode != "" {
		location.Country = record.Country.IsoCode
	}
	if name := record.City.Names["en"]; name != "" {
		location.City = name
	}
	if len(record.Subdivisions) > 0 && record.Subdivisions[0].IsoCode != "" {
		location.Region = record.Subdivisions[0].IsoCode
	}
	if record.Location.TimeZone != "" {
		location.Timezone = record.Location.TimeZone
	}
	location.Latitude = record.Location.Latitude
	location.Longitude = record.Location.Longitude
	return location
}

func (g *GeoIPLookup) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
