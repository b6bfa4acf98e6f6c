package config

type LogConfig struct {
	Level string    `yaml:"level"`
	Sls   SlsConfig `yaml:"sls"`
}

// SlsConfig 阿里云日志服务投递配置，Endpoint 为空时不启用
type SlsConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access-key"`
	AccessSecret string `yaml:"access-secret"`
	Project      string `yaml:"project"`
	Logstore     string `yaml:"logstore"`
	Level        string `yaml:"level"`
}

func (s SlsConfig) Enabled() bool {
	return s.Endpoint != "" && s.Project != "" && s.Logstore != ""
}
