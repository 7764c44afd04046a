package messaging

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Callbacks struct {
	WriteCallback         func(pin int, data []byte) ([]byte, error)
	SetBrightnessCallback func(float64) float64
	SetRemapCallback      func([]byte)
	ClearRemapCallback    func() bool
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	prefix    string
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRedisClient listens on "<prefix>:write", "<prefix>:brightness" and
// "<prefix>:remap" and publishes echoes on the "<prefix>" channel.
func NewRedisClient(addr, prefix string, l zerolog.Logger, callbacks Callbacks) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	if prefix == "" {
		prefix = "ws2812"
	}
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		callbacks: callbacks,
		prefix:    prefix,
		log:       l,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (r *RedisClient) Connect() error {
	r.log.Info().Str("addr", r.client.Options().Addr).Msg("connecting to redis")
	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (r *RedisClient) StartListening() {
	r.wg.Add(3)
	go r.listCommandListener(r.prefix+":write", r.handleWriteCommand)
	go r.listCommandListener(r.prefix+":brightness", r.handleBrightnessCommand)
	go r.listCommandListener(r.prefix+":remap", r.handleRemapCommand)
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.log.Info().Str("key", key).Msg("starting list command listener")

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		// Short BRPOP timeout so cancellation is noticed between commands.
		result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			r.log.Warn().Err(err).Str("key", key).Msg("list read failed")
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 { // BRPOP returns [key, value]
			continue
		}
		r.log.Debug().Str("key", key).Str("value", result[1]).Msg("command")
		if err := handler(result[1]); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("command failed")
		}
	}
}

func (r *RedisClient) handleWriteCommand(value string) error {
	if r.callbacks.WriteCallback == nil {
		return nil
	}
	pin, data, err := ParseWrite(value)
	if err != nil {
		return err
	}
	echo, err := r.callbacks.WriteCallback(pin, data)
	if err != nil {
		return err
	}
	return r.publishEcho(pin, echo)
}

func (r *RedisClient) handleBrightnessCommand(value string) error {
	if r.callbacks.SetBrightnessCallback == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid brightness command: %s", value)
	}
	v = r.callbacks.SetBrightnessCallback(v)
	r.log.Debug().Float64("brightness", v).Msg("brightness set")
	return nil
}

func (r *RedisClient) handleRemapCommand(value string) error {
	table, drop, err := ParseRemap(value)
	if err != nil {
		return err
	}
	if drop {
		if r.callbacks.ClearRemapCallback != nil {
			r.callbacks.ClearRemapCallback()
		}
		return nil
	}
	if r.callbacks.SetRemapCallback != nil {
		r.callbacks.SetRemapCallback(table)
	}
	return nil
}

// publishEcho records the last transmission for observers; it is not read
// back on startup.
func (r *RedisClient) publishEcho(pin int, echo []byte) error {
	h := hex.EncodeToString(echo)
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, r.prefix, "echo", h, "pin", pin)
	pipe.Publish(r.ctx, r.prefix, fmt.Sprintf("%d:%s", pin, h))
	_, err := pipe.Exec(r.ctx)
	return err
}

// ParseWrite reads "<pin>:<hex bytes>".
func ParseWrite(value string) (int, []byte, error) {
	p, h, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, nil, fmt.Errorf("invalid write command: %s", value)
	}
	pin, err := strconv.Atoi(p)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid write pin %q: %w", p, err)
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid write data: %w", err)
	}
	return pin, data, nil
}

// ParseRemap reads "clear" or a hex table.
func ParseRemap(value string) (table []byte, drop bool, err error) {
	v := strings.TrimSpace(value)
	if v == "clear" {
		return nil, true, nil
	}
	table, err = hex.DecodeString(v)
	if err != nil {
		return nil, false, fmt.Errorf("invalid remap command: %w", err)
	}
	return table, false, nil
}

func (r *RedisClient) Close() error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.log.Warn().Msg("timed out waiting for redis listeners")
	}
	return r.client.Close()
}
