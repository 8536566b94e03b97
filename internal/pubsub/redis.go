package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"market-pulse/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultChannel = "market-pulse:dashboard"

var ErrDisabled = errors.New("redis disabled")

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to url, which is either a bare host:port or a
// redis:// / rediss:// URL. An empty url returns ErrDisabled.
func InitRedis(ctx context.Context, url string) (*redis.Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrDisabled
	}

	opts := &redis.Options{Addr: url}
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := parseRedisURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// publishClient is the part of *redis.Client the publisher needs.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher broadcasts every published dashboard as JSON on a channel.
// Nothing is stored; subscribers that are offline miss the message.
type RedisPublisher struct {
	tracer  trace.Tracer
	client  publishClient
	channel string
}

func NewRedisPublisher(tracer trace.Tracer, client publishClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{tracer: tracer, client: client, channel: channel}
}

func (p *RedisPublisher) Channel() string {
	return p.channel
}

func (p *RedisPublisher) Publish(ctx context.Context, dashboard domain.Dashboard) error {
	ctx, span := p.tracer.Start(ctx, "pubsub.publish")
	defer span.End()
	span.SetAttributes(
		attribute.String("redis.channel", p.channel),
		attribute.String("cycle.id", dashboard.CycleID),
	)

	payload, err := json.Marshal(dashboard)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encode dashboard: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	span.SetAttributes(attribute.Int64("redis.receivers", receivers))
	return nil
}
