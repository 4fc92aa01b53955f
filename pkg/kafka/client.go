// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"readmission-risk-go/internal/config"
	"readmission-risk-go/pkg/database"
	"readmission-risk-go/pkg/log"
	"readmission-risk-go/pkg/tasks"
)

// TaskProcessor 定义了可以处理批量评分任务的服务，把消费者和具体的评分流程解耦。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.BatchScoringTask) error
}

// maxAttempts 是同一个任务的最大处理次数，超过后提交 offset 放弃重试。
const maxAttempts = 3

var producer *kafka.Writer

func brokerList(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(brokerList(cfg.Brokers)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceBatchTask 发送一个批量评分任务到 Kafka，以 JobID 作为消息 key。
func ProduceBatchTask(ctx context.Context, task tasks.BatchScoringTask) error {
	if producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(task.JobID),
			Value: taskBytes,
		},
	)
}

// CloseProducer 关闭生产者并刷新未发送的消息。
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	return producer.Close()
}

func attemptsKey(jobID string) string {
	return fmt.Sprintf("kafka:attempts:%s", jobID)
}

// StartConsumer 启动一个 Kafka 消费者来处理批量评分任务，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,    // 评分任务体积小，不需要攒批
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Kafka 消费者收到退出信号")
			} else {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.BatchScoringTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			// 消息体包含病历文本，不打印原始内容
			log.Errorf("无法解析 Kafka 消息: %v, offset: %d", err, m.Offset)
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理批量评分任务: JobID=%s, 条目数=%d", task.JobID, len(task.Items))
		// 同步处理任务
		if err := processor.Process(ctx, task); err != nil {
			log.Errorf("处理批量评分任务失败: JobID=%s, Error: %v", task.JobID, err)
			if ctx.Err() != nil {
				break
			}
			// 使用 Redis 计数失败次数，达到阈值后提交 offset 终止重试
			key := attemptsKey(task.JobID)
			attempts, incErr := database.RDB.Incr(ctx, key).Result()
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			_ = database.RDB.Expire(ctx, key, 24*time.Hour).Err()
			if attempts >= maxAttempts {
				log.Errorf("批量评分任务多次失败(>=%d)，提交 offset 终止重试: JobID=%s", maxAttempts, task.JobID)
				if err := r.CommitMessages(ctx, m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
			// attempts < maxAttempts 时，不提交 offset 让 Kafka 自动重试
		} else {
			log.Infof("批量评分任务处理成功: JobID=%s", task.JobID)
			// 清理失败计数
			_ = database.RDB.Del(ctx, attemptsKey(task.JobID)).Err()
			// 任务处理成功后，手动提交 offset
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}
