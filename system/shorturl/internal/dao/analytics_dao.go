package dao

import (
	"context"
	"errors"
	"strings"

	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/system/shorturl/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AnalyticsCollection = "analytics"

// AnalyticsDao 跳转统计数据访问层（MongoDB）
type AnalyticsDao struct {
	coll *mongo.Collection
	log  *logger.Log
	err  *errorc.ErrorBuilder
}

func NewAnalyticsDao(db *mongo.Database, log *logger.Log) *AnalyticsDao {
	return &AnalyticsDao{
		coll: db.Collection(AnalyticsCollection),
		log:  log.WithEntryName("AnalyticsDao"),
		err:  errorc.NewErrorBuilder("AnalyticsDao"),
	}
}

// EnsureIndexes 每个短链只允许一份统计文档
func (d *AnalyticsDao) EnsureIndexes(ctx context.Context) error {
	_, err := d.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shortUrlId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lastAccessed", Value: -1}}},
	})
	if err != nil {
		return d.err.New("创建统计索引失败", err).DB()
	}
	return nil
}

// RecordRedirect 单次 upsert 完成计数、事件追加和最后访问时间更新。
// 过滤条件排除已写入的 eventId，重试时命中唯一索引冲突即视为已写入。
func (d *AnalyticsDao) RecordRedirect(ctx context.Context, linkID int64, ev *model.RedirectEvent, maxEvents int) error {
	if maxEvents <= 0 {
		maxEvents = 1000
	}

	filter := bson.M{
		"shortUrlId":        linkID,
		"redirects.eventId": bson.M{"$ne": ev.EventID},
	}
	update := bson.M{
		"$inc": bson.M{
			"redirectCount": 1,
			"deviceStats." + SanitizeKey(ev.UserAgent.Device):       1,
			"browserStats." + SanitizeKey(ev.UserAgent.Browser):     1,
			"countryStats." + SanitizeKey(ev.Geolocation.Country):   1,
			"dailyStats." + ev.Timestamp.UTC().Format("2006-01-02"): 1,
		},
		"$push": bson.M{
			"redirects": bson.M{
				"$each":  []*model.RedirectEvent{ev},
				"$slice": -maxEvents,
			},
		},
		"$set": bson.M{"lastAccessed": ev.Timestamp},
	}
	opts := options.Update().SetUpsert(true)

	// 首次写入时并发 upsert 可能撞唯一索引，再试一次即可命中已有文档
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		_, err = d.coll.UpdateOne(ctx, filter, update, opts)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return d.err.New("写入跳转统计失败", err).DB()
		}

		applied, findErr := d.hasEvent(ctx, linkID, ev.EventID)
		if findErr != nil {
			return findErr
		}
		if applied {
			d.log.WithField("eventId", ev.EventID).Debug("事件已写入，跳过重复统计")
			return nil
		}
	}
	return d.err.New("写入跳转统计失败", err).DB()
}

func (d *AnalyticsDao) hasEvent(ctx context.Context, linkID int64, eventID string) (bool, error) {
	n, err := d.coll.CountDocuments(ctx, bson.M{"shortUrlId": linkID, "redirects.eventId": eventID}, options.Count().SetLimit(1))
	if err != nil {
		return false, d.err.New("查询统计事件失败", err).DB()
	}
	return n > 0, nil
}

// FindByLinkID 统计文档，只返回最近 lastN 条事件
func (d *AnalyticsDao) FindByLinkID(ctx context.Context, linkID int64, lastN int) (*model.Analytics, error) {
	opts := options.FindOne().SetProjection(bson.M{"redirects": bson.M{"$slice": -lastN}})

	var result model.Analytics
	err := d.coll.FindOne(ctx, bson.M{"shortUrlId": linkID}, opts).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, d.err.New("统计数据不存在", err).NotFound()
		}
		return nil, d.err.New("查询统计数据失败", err).DB()
	}
	return &result, nil
}

type aggregateRow struct {
	TotalClicks int64            `bson:"totalClicks"`
	UniqueUsers int64            `bson:"uniqueUsers"`
	ByDate      []model.KeyCount `bson:"byDate"`
	ByOS        []model.KeyCount `bson:"byOS"`
	ByDevice    []model.KeyCount `bson:"byDevice"`
}

// Aggregate 对一组短链的事件做分面聚合
func (d *AnalyticsDao) Aggregate(ctx context.Context, linkIDs []int64) (*model.AggregateStats, error) {
	stats := &model.AggregateStats{
		ByDate:   []model.KeyCount{},
		ByOS:     []model.KeyCount{},
		ByDevice: []model.KeyCount{},
	}
	if len(linkIDs) == 0 {
		return stats, nil
	}

	countBy := func(field string) bson.A {
		return bson.A{
			bson.M{"$group": bson.M{"_id": "$redirects." + field, "count": bson.M{"$sum": 1}}},
			bson.M{"$sort": bson.M{"count": -1}},
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"shortUrlId": bson.M{"$in": linkIDs}}}},
		{{Key: "$unwind", Value: "$redirects"}},
		{{Key: "$facet", Value: bson.M{
			"totalClicks": bson.A{bson.M{"$count": "count"}},
			"uniqueUsers": bson.A{
				bson.M{"$group": bson.M{"_id": "$redirects.ipAddress"}},
				bson.M{"$count": "count"},
			},
			"byDate": bson.A{
				bson.M{"$group": bson.M{
					"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$redirects.timestamp"}},
					"count": bson.M{"$sum": 1},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
			"byOS":     countBy("userAgent.os"),
			"byDevice": countBy("userAgent.device"),
		}}},
		{{Key: "$project", Value: bson.M{
			"totalClicks": bson.M{"$arrayElemAt": bson.A{"$totalClicks.count", 0}},
			"uniqueUsers": bson.M{"$arrayElemAt": bson.A{"$uniqueUsers.count", 0}},
			"byDate":      1,
			"byOS":        1,
			"byDevice":    1,
		}}},
	}

	cursor, err := d.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, d.err.New("聚合统计失败", err).DB()
	}
	defer cursor.Close(ctx)

	var rows []aggregateRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, d.err.New("解析聚合结果失败", err).DB()
	}
	if len(rows) == 0 {
		return stats, nil
	}

	row := rows[0]
	stats.TotalClicks = row.TotalClicks
	stats.UniqueUsers = row.UniqueUsers
	if row.ByDate != nil {
		stats.ByDate = row.ByDate
	}
	if row.ByOS != nil {
		stats.ByOS = row.ByOS
	}
	if row.ByDevice != nil {
		stats.ByDevice = row.ByDevice
	}
	return stats, nil
}

// SanitizeKey 统计字段名不能包含点号或以 $ 开头
func SanitizeKey(key string) string {
	if key == "" {
		return model.Unknown
	}
	key = strings.ReplaceAll(key, ".", "_")
	if strings.HasPrefix(key, "$") {
		key = "_" + key[1:]
	}
	return key
}
