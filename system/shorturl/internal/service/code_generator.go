package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// codeAlphabet 去掉了 0/O/1/l/I 等易混淆字符
const codeAlphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	DefaultCodeLength = 7
	AliasMinLength    = 4
	AliasMaxLength    = 15
)

// reservedCodes 与路由前缀冲突的短码
var reservedCodes = map[string]struct{}{
	"shorten":   {},
	"my-urls":   {},
	"by-topic":  {},
	"analytics": {},
	"auth":      {},
	"urls":      {},
	"health":    {},
	"api":       {},
}

// GenerateShortCode 生成指定长度的随机短码
func GenerateShortCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	result := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = codeAlphabet[n.Int64()]
	}

	return string(result), nil
}

// IsAliasChar 别名只允许字母数字和 - _
func IsAliasChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}

// IsReservedCode 是否与路由前缀冲突
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]
	return ok
}

// ValidateAlias 校验自定义别名，返回不合法的原因
func ValidateAlias(alias string) string {
	if len(alias) < AliasMinLength || len(alias) > AliasMaxLength {
		return "自定义别名长度必须在4到15个字符之间"
	}
	for _, r := range alias {
		if !IsAliasChar(r) {
			return "自定义别名只能包含字母、数字、连字符和下划线"
		}
	}
	if IsReservedCode(alias) {
		return "自定义别名为系统保留字"
	}
	return ""
}
