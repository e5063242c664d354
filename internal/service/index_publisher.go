package service

import (
	"cms-go/pkg/events"
	"cms-go/pkg/log"
	"context"
)

// IndexPublisher 把索引事件投递到消息队列，由后台消费者写入搜索引擎。
type IndexPublisher interface {
	Publish(ctx context.Context, event events.IndexEvent) error
}

// publishIndex 投递失败只记录日志，数据库仍是唯一的数据源。
func publishIndex(ctx context.Context, publisher IndexPublisher, action, kind string, id uint) {
	if publisher == nil {
		return
	}
	event := events.IndexEvent{Action: action, Kind: kind, ID: id}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warnw("failed to publish index event", "action", action, "kind", kind, "id", id, "error", err)
	}
}
