package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"shortlink/base"
	"shortlink/pkg/core/start"
	"shortlink/pkg/core/system"
	"shortlink/pkg/scheduler"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFlag    string
	configFlag string
)

// RootCmd 默认执行 serve
var RootCmd = &cobra.Command{
	Use:   "shortlink",
	Short: "短链接服务",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envFlag, "env", "dev", "环境配置 (dev, prod, test等)")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "配置文件路径，默认为 ./resources/{env}.yaml")
}

// Execute 命令行入口
func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig 先加载 .env，再读取 yaml，环境变量覆盖文件中的密钥和地址
func loadConfig() error {
	_ = godotenv.Load()

	filename := configFlag
	if filename == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("获取当前文件位置失败: %w", err)
		}
		filename = filepath.Join(wd, "resources", envFlag+".yaml")
	}

	file, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	cfg, err := start.ParseConfig(file, envFlag)
	if err != nil {
		return err
	}

	configures := start.NewConfiguresFrom(cfg)
	base.Configures = configures
	base.Logger = configures.Logger
	base.ENV = envFlag
	base.UserAuth = configures.UserAuth
	return nil
}

// initResources 连接数据库、redis 和 mongo，关闭动作按注册的逆序执行
func initResources(ctx context.Context) {
	configures := base.Configures

	base.DB = configures.EnableDB()
	system.RegisterClose("database", func(ctx context.Context) error {
		sqlDB, err := base.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	base.RDB = configures.EnableRedis()
	base.Cache = configures.EnableCache(base.RDB)
	base.Locker = configures.EnableLocker(base.RDB)
	system.RegisterClose("redis", func(ctx context.Context) error {
		return base.RDB.Close()
	})

	base.Mongo = configures.EnableMongo(ctx)
	system.RegisterClose("mongo", func(ctx context.Context) error {
		return base.Mongo.Client().Disconnect(ctx)
	})

	base.Scheduler = scheduler.NewScheduler(base.Locker, scheduler.DefaultSchedulerConfig())
	system.RegisterClose("scheduler", base.Scheduler.Stop)
}
