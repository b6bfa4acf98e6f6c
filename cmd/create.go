package cmd

import (
	"context"
	"fmt"
	"time"

	"shortlink/app"
	"shortlink/base"
	"shortlink/pkg/core/system"
	"shortlink/system/shorturl"

	"github.com/spf13/cobra"
)

var createFlags struct {
	url     string
	alias   string
	topic   string
	owner   int64
	expires time.Duration
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "离线创建短链接",
	Long: `使用与 HTTP 接口相同的应用层创建短链接，来源记为 cli。

示例:
  shortlink create --url="https://example.com/landing" --alias=promo1 --owner=1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		initResources(ctx)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), base.Configures.Config.Analytics.DrainTimeout)
			defer cancel()
			system.Shutdown(shutdownCtx)
		}()

		appRoot, err := app.NewApp(ctx)
		if err != nil {
			return err
		}

		req := shorturl.CreateLinkRequest{
			URL:     createFlags.url,
			Alias:   createFlags.alias,
			Topic:   createFlags.topic,
			OwnerID: createFlags.owner,
		}
		if createFlags.expires > 0 {
			at := time.Now().Add(createFlags.expires)
			req.ExpiresAt = &at
		}

		shortURL, created, err := appRoot.ShortURLModule.CreateLink(ctx, req)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("短链接创建成功: %s\n", shortURL)
		} else {
			fmt.Printf("该URL已缩短过: %s\n", shortURL)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createFlags.url, "url", "", "需要缩短的原始URL")
	createCmd.Flags().StringVar(&createFlags.alias, "alias", "", "自定义别名")
	createCmd.Flags().StringVar(&createFlags.topic, "topic", "", "主题")
	createCmd.Flags().Int64Var(&createFlags.owner, "owner", 0, "所属用户ID")
	createCmd.Flags().DurationVar(&createFlags.expires, "expires-in", 0, "有效期，例如 72h，0 表示永久")
	_ = createCmd.MarkFlagRequired("url")
	_ = createCmd.MarkFlagRequired("owner")
	RootCmd.AddCommand(createCmd)
}
