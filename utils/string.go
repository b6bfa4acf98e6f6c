package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseInt64 将字符串转换为int64类型，如果转换失败则返回默认值
func ParseInt64(s string, defaultVal int64) int64 {
	if s == "" {
		return defaultVal
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return defaultVal
	}

	return val
}

// IsHTTPURL 带 host 的 http/https 绝对地址
func IsHTTPURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != "" && u.Hostname() != ""
}

// NormalizeTopic 主题统一为小写并去掉首尾空白
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
