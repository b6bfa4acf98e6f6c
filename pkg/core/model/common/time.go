package common

import (
	"fmt"
	"strings"
	"time"
)

// FlexTime 请求参数中的时间，兼容多种格式
type FlexTime struct {
	time.Time
}

var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), "\"")
	if str == "" || str == "null" {
		t.Time = time.Time{}
		return nil
	}

	var parseErr error
	for _, format := range timeFormats {
		// 无时区的格式按本地时间解析
		parsed, err := time.ParseInLocation(format, str, time.Local)
		if err == nil {
			t.Time = parsed
			return nil
		}
		parseErr = err
	}
	return fmt.Errorf("无法解析时间格式: %s, 错误: %v", str, parseErr)
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("\"%s\"", t.Time.Format(time.RFC3339))), nil
}

// ToTime 零值返回 nil
func (t *FlexTime) ToTime() *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func FromTime(t *time.Time) *FlexTime {
	if t == nil {
		return nil
	}
	return &FlexTime{Time: *t}
}
