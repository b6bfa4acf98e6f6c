package config

type JwtConfig struct {
	Secret string `yaml:"secret" json:"secret,omitempty"`
	// ExpireTime 过期时间，单位小时
	ExpireTime int `yaml:"expire-time" json:"expire-time,omitempty"`
}
