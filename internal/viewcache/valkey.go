package viewcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey is a Valkey-backed cache for deployments running more than one
// instance, so a revalidation hitting any instance clears them all.
// Every operation is best-effort: a broken cache server degrades to
// cache misses, never to request failures.
type Valkey struct {
	client valkey.Client
	prefix string
	logger *slog.Logger
}

// NewValkey connects to the given address and verifies it with a ping.
func NewValkey(addr, password string, logger *slog.Logger) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return &Valkey{client: client, prefix: "yumeji:", logger: logger}, nil
}

// Close releases the connection pool.
func (v *Valkey) Close() {
	v.client.Close()
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool) {
	res := v.client.Do(ctx, v.client.B().Get().Key(v.prefix+key).Build())
	if err := res.Error(); err != nil {
		if !valkey.IsValkeyNil(err) {
			v.logger.Warn("viewcache: get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	val, err := res.AsBytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	b := v.client.B().Set().Key(v.prefix + key).Value(valkey.BinaryString(value))
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = b.Ex(ttl).Build()
	} else {
		cmd = b.Build()
	}
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		v.logger.Warn("viewcache: set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (v *Valkey) Invalidate(ctx context.Context, slug string) {
	keys := []string{
		v.prefix + ContentKey(slug),
		v.prefix + GuideKey(slug),
	}
	for _, key := range aggregates {
		keys = append(keys, v.prefix+key)
	}
	if err := v.client.Do(ctx, v.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		v.logger.Warn("viewcache: invalidate failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
	v.dropByPattern(ctx, v.prefix+"page:category:*")
}

func (v *Valkey) InvalidateAll(ctx context.Context) {
	v.dropByPattern(ctx, v.prefix+"*")
}

// dropByPattern walks the keyspace with SCAN and deletes matches.
func (v *Valkey) dropByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		res := v.client.Do(ctx, v.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		sc, err := res.AsScanEntry()
		if err != nil {
			v.logger.Warn("viewcache: scan failed", slog.String("pattern", pattern), slog.String("error", err.Error()))
			return
		}
		if len(sc.Elements) > 0 {
			if err := v.client.Do(ctx, v.client.B().Del().Key(sc.Elements...).Build()).Error(); err != nil {
				v.logger.Warn("viewcache: delete failed", slog.String("error", err.Error()))
			}
		}
		cursor = sc.Cursor
		if cursor == 0 {
			return
		}
	}
}

var _ Cache = (*Valkey)(nil)
