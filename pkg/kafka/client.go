// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"cms-go/internal/config"
	"cms-go/pkg/events"
	"cms-go/pkg/log"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// maxAttempts 是同一个事件处理失败后重试的上限，超过后提交 offset 放弃该事件。
const maxAttempts = 3

// EventProcessor 处理一个索引事件，Kafka 消费者与具体的索引实现解耦。
type EventProcessor interface {
	Process(ctx context.Context, event events.IndexEvent) error
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers(cfg)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	log.Info("Kafka 生产者初始化成功")
}

// CloseProducer 刷新并关闭生产者。
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	return producer.Close()
}

// Publisher 通过全局生产者发送索引事件。
type Publisher struct{}

// Publish 发送一个索引事件，以 kind:id 作为 key 保证同一条记录的事件有序。
func (Publisher) Publish(ctx context.Context, event events.IndexEvent) error {
	if producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", event.Kind, event.ID)),
		Value: value,
	})
}

// StartConsumer 启动一个 Kafka 消费者来处理索引事件，ctx 取消时退出。
// attempts 用于记录失败次数，为 nil 时失败的事件会一直重试。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor EventProcessor, attempts *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}

		var event events.IndexEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(ctx, r, m)
			continue
		}

		if err := processor.Process(ctx, event); err != nil {
			log.Errorf("处理索引事件失败: action=%s kind=%s id=%d, error: %v", event.Action, event.Kind, event.ID, err)
			if giveUp(ctx, attempts, m) {
				log.Errorf("索引事件多次失败(>=%d)，提交 offset 终止重试: kind=%s id=%d", maxAttempts, event.Kind, event.ID)
				commit(ctx, r, m)
			}
			// 未提交 offset 的消息会在消费者重新加入分组后再次投递
			continue
		}

		clearAttempts(ctx, attempts, m)
		commit(ctx, r, m)
	}
}

// giveUp 使用 Redis 计数失败次数，达到阈值时返回 true。
func giveUp(ctx context.Context, attempts *redis.Client, m kafka.Message) bool {
	if attempts == nil {
		return false
	}
	key := attemptsKey(m)
	n, err := attempts.Incr(ctx, key).Result()
	if err != nil {
		// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
		return false
	}
	_ = attempts.Expire(ctx, key, 24*time.Hour).Err()
	return n >= maxAttempts
}

func clearAttempts(ctx context.Context, attempts *redis.Client, m kafka.Message) {
	if attempts == nil {
		return
	}
	_ = attempts.Del(ctx, attemptsKey(m)).Err()
}

func attemptsKey(m kafka.Message) string {
	return fmt.Sprintf("kafka:attempts:%s:%d:%d", m.Topic, m.Partition, m.Offset)
}

func commit(ctx context.Context, r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}

func brokers(cfg config.KafkaConfig) []string {
	var list []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return list
}
