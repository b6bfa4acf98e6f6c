package cmd

import (
	"fmt"

	"shortlink/base"
	"shortlink/pkg/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "执行数据库迁移，postgres 使用版本化 SQL，mysql/sqlite 使用 gorm 自动迁移",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		down := len(args) == 1 && args[0] == "down"

		cfg := base.Configures.Config.Database
		base.DB = base.Configures.EnableDB()
		defer func() {
			if sqlDB, err := base.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		if err := db.Run(cfg, base.DB, down); err != nil {
			return err
		}
		fmt.Println("数据库迁移执行完成")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
