package logger

import (
	"fmt"
	"os"
	"time"

	"shortlink/pkg/core/config"

	sls "github.com/aliyun/aliyun-log-go-sdk"
	"github.com/gogo/protobuf/proto"
	"github.com/sirupsen/logrus"
)

// logPutter 只取 SLS 客户端中投递日志的能力
type logPutter interface {
	PutLogs(project, logstore string, lg *sls.LogGroup) error
}

type SlsHook struct {
	levels   []logrus.Level
	client   logPutter
	appName  string
	host     string
	project  string
	logstore string
}

func NewSlsHook(appName string, cfg config.SlsConfig) *SlsHook {
	provider := sls.NewStaticCredentialsProvider(cfg.AccessKey, cfg.AccessSecret, "")
	client := sls.CreateNormalInterfaceV2(cfg.Endpoint, provider)
	return newSlsHook(appName, cfg, client)
}

func newSlsHook(appName string, cfg config.SlsConfig, client logPutter) *SlsHook {
	host, _ := os.Hostname()

	min := logrus.WarnLevel
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		min = lvl
	}
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}

	return &SlsHook{
		levels:   levels,
		client:   client,
		appName:  appName,
		host:     host,
		project:  cfg.Project,
		logstore: cfg.Logstore,
	}
}

func (s *SlsHook) Fire(entry *logrus.Entry) error {
	content := make([]*sls.LogContent, 0, len(entry.Data)+2)
	for k, v := range entry.Data {
		content = append(content, &sls.LogContent{
			Key:   proto.String(k),
			Value: proto.String(fmt.Sprintf("%v", v)),
		})
	}
	content = append(content,
		&sls.LogContent{Key: proto.String("level"), Value: proto.String(entry.Level.String())},
		&sls.LogContent{Key: proto.String("message"), Value: proto.String(entry.Message)},
	)

	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	logGroup := &sls.LogGroup{
		Topic:  proto.String(s.appName),
		Source: proto.String(s.host),
		Logs: []*sls.Log{{
			Time:     proto.Uint32(uint32(ts.Unix())),
			Contents: content,
		}},
	}

	return s.client.PutLogs(s.project, s.logstore, logGroup)
}

func (s *SlsHook) Levels() []logrus.Level {
	return s.levels
}

// AddHook 为全局日志追加钩子
func (l *Log) AddHook(hook logrus.Hook) {
	l.Entry.Logger.AddHook(hook)
}
