package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
	"github.com/felixgeelhaar/agent-presence/infrastructure/resilience"
)

// RedisConfig holds Redis pub/sub connection configuration.
type RedisConfig struct {
	// Address is the Redis server address (host:port).
	Address string

	// Password for authentication (optional).
	Password string

	// DB selects the Redis database index.
	DB int

	// Channel is the pub/sub channel carrying updates.
	Channel string

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// Reconnect configures retry and circuit breaking of the subscription.
	Reconnect resilience.Config
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Address:     "localhost:6379",
		Channel:     "presence",
		DialTimeout: 5 * time.Second,
		Reconnect:   resilience.DefaultConfig(),
	}
}

// ParseRedisURL reads redis://[:password@]host:port/channel into a config.
func ParseRedisURL(raw string) (RedisConfig, error) {
	cfg := DefaultRedisConfig()

	u, err := url.Parse(raw)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	if u.Scheme != "redis" {
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedSource, raw)
	}
	channel := strings.Trim(u.Path, "/")
	if u.Host == "" || channel == "" {
		return cfg, fmt.Errorf("%w: redis source needs host and channel", ErrUnsupportedSource)
	}

	cfg.Address = u.Host
	cfg.Channel = channel
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
	}
	return cfg, nil
}

// RedisSource reads updates published on a Redis channel.
type RedisSource struct {
	config  RedisConfig
	decoder Decoder
	client  *redis.Client
	dialer  *resilience.Dialer[*redis.PubSub]
}

// NewRedisSource creates a Redis pub/sub source.
func NewRedisSource(config RedisConfig, decoder Decoder) *RedisSource {
	client := redis.NewClient(&redis.Options{
		Addr:        config.Address,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})
	return NewRedisSourceFromClient(client, config, decoder)
}

// NewRedisSourceFromClient creates a source from an existing Redis client.
func NewRedisSourceFromClient(client *redis.Client, config RedisConfig, decoder Decoder) *RedisSource {
	return &RedisSource{
		config:  config,
		decoder: decoder,
		client:  client,
		dialer:  resilience.NewDialer[*redis.PubSub](config.Reconnect),
	}
}

// Name describes the channel.
func (s *RedisSource) Name() string {
	return fmt.Sprintf("redis://%s/%s", s.config.Address, s.config.Channel)
}

// Run subscribes and forwards messages until ctx is done or the
// subscription cannot be established.
func (s *RedisSource) Run(ctx context.Context, out chan<- presence.Update) error {
	defer s.client.Close()

	metrics := s.decoder.metrics()
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			metrics.RecordReconnect(ctx, s.Name())
		}
		pubsub, err := s.dialer.Dial(ctx, s.subscribe)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logging.Error().
				Add(logging.Source(s.Name())).
				Add(logging.Str("circuit_breaker", s.dialer.CircuitBreakerState().String())).
				Add(logging.ErrorField(err)).
				Msg("feed unreachable")
			return fmt.Errorf("subscribing to %s: %w", s.Name(), err)
		}

		logging.Info().
			Add(logging.Source(s.Name())).
			Msg("feed connected")
		metrics.FeedConnected(ctx, s.Name())

		s.read(ctx, pubsub, out)
		_ = pubsub.Close()
		if ctx.Err() != nil {
			return nil
		}

		logging.Warn().
			Add(logging.Source(s.Name())).
			Msg("feed connection lost")
		metrics.FeedDisconnected(ctx, s.Name())

		if err := send(ctx, out, s.decoder.lost()); err != nil {
			return nil
		}
	}
}

func (s *RedisSource) subscribe(ctx context.Context) (*redis.PubSub, error) {
	pubsub := s.client.Subscribe(ctx, s.config.Channel)
	// Wait for the subscription confirmation so dial errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	return pubsub, nil
}

func (s *RedisSource) read(ctx context.Context, pubsub *redis.PubSub, out chan<- presence.Update) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			u, err := s.decoder.Decode([]byte(msg.Payload))
			if err != nil {
				logging.Warn().
					Add(logging.Source(s.Name())).
					Add(logging.ErrorField(err)).
					Msg("skipping malformed update")
				s.decoder.metrics().RecordMalformed(ctx, s.Name())
				continue
			}
			if err := send(ctx, out, u); err != nil {
				return
			}
		}
	}
}
