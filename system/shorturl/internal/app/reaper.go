package app

import (
	"context"

	"shortlink/system/shorturl/internal/cache"
)

// ReapExpired 分批停用已过期的短链，并清除 url:{code} 和所属用户的列表缓存。
// 返回本次停用的数量
func (a *App) ReapExpired(ctx context.Context) (int64, error) {
	var total int64
	batch := a.opts.Reaper.BatchSize

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		links, err := a.LinkService.Dao.FindExpiredActive(ctx, a.now(), batch)
		if err != nil {
			return total, err
		}
		if len(links) == 0 {
			break
		}

		ids := make([]int64, 0, len(links))
		keys := make([]string, 0, len(links)*3)
		owners := map[int64]struct{}{}
		for _, link := range links {
			ids = append(ids, link.ID)
			keys = append(keys, cache.LinkKey(link.ShortCode), cache.OwnerTopicKey(link.OwnerID, link.Topic))
			if _, ok := owners[link.OwnerID]; !ok {
				owners[link.OwnerID] = struct{}{}
				keys = append(keys, cache.OwnerListKey(link.OwnerID))
			}
		}

		n, err := a.LinkService.Dao.DeactivateByIDs(ctx, ids)
		if err != nil {
			return total, err
		}
		a.invalidate(ctx, keys...)
		total += n

		// 本批没有更新任何行，说明被其他流程并发处理，避免空转
		if n == 0 || len(links) < batch {
			break
		}
	}

	if total > 0 {
		a.log.WithField("count", total).Info("已停用过期短链接")
	}
	return total, nil
}
