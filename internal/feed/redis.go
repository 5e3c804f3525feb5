package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelPrefix namespaces the pub/sub channels, one per date.
const ChannelPrefix = "capacity:"

// RedisBroadcaster shares capacity updates between service instances
// over Redis pub/sub. The process holds a single subscriber connection
// and subscribes to a date's channel while at least one local listener
// is interested in it.
type RedisBroadcaster struct {
	rdb *redis.Client
	log *zap.Logger
	hub *Hub

	mu   sync.Mutex
	ps   *redis.PubSub
	refs map[string]int
	done chan struct{}
}

// NewRedisBroadcaster starts the receive loop. Close stops it.
func NewRedisBroadcaster(rdb *redis.Client, log *zap.Logger) *RedisBroadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	b := &RedisBroadcaster{
		rdb:  rdb,
		log:  log.Named("feed.redis"),
		hub:  NewHub(),
		ps:   rdb.Subscribe(context.Background()),
		refs: make(map[string]int),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

func channelFor(dateKey string) string { return ChannelPrefix + dateKey }

func (b *RedisBroadcaster) run() {
	defer close(b.done)
	for msg := range b.ps.Channel() {
		var u Update
		if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
			b.log.Warn("dropping malformed capacity message", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		b.hub.dispatch(u)
	}
}

// Publish sends u to every instance, this one included.
func (b *RedisBroadcaster) Publish(ctx context.Context, u Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelFor(u.DateKey), payload).Err()
}

func (b *RedisBroadcaster) Listen(ctx context.Context, dateKey string, fn func(Update)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs[dateKey] == 0 {
		if err := b.ps.Subscribe(ctx, channelFor(dateKey)); err != nil {
			return nil, err
		}
	}
	b.refs[dateKey]++
	id := b.hub.add(dateKey, fn)

	var once sync.Once
	return func() { once.Do(func() { b.release(dateKey, id) }) }, nil
}

func (b *RedisBroadcaster) release(dateKey string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hub.remove(dateKey, id)
	b.refs[dateKey]--
	if b.refs[dateKey] > 0 {
		return
	}
	delete(b.refs, dateKey)
	if err := b.ps.Unsubscribe(context.Background(), channelFor(dateKey)); err != nil {
		b.log.Warn("redis unsubscribe failed", zap.String("date", dateKey), zap.Error(err))
	}
}

// Close releases the subscriber connection and waits for the receive
// loop to exit.
func (b *RedisBroadcaster) Close() error {
	err := b.ps.Close()
	<-b.done
	return err
}
