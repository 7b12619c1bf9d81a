package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RafflePubSub broadcasts "something sold" notifications so grid and
// counter views can refresh live.
type RafflePubSub struct {
	rdb     *redis.Client
	channel string
}

func NewRafflePubSub(rdb *redis.Client) *RafflePubSub {
	return &RafflePubSub{
		rdb:     rdb,
		channel: ChannelRafflesChanged(),
	}
}

type raffleChangedMsg struct {
	Type     string `json:"type"`
	RaffleID string `json:"raffle_id"`
	TsUnix   int64  `json:"ts_unix"`
}

func (p *RafflePubSub) PublishRaffleChanged(ctx context.Context, raffleID string) error {
	msg := raffleChangedMsg{
		Type:     "raffle_changed",
		RaffleID: raffleID,
		TsUnix:   time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *RafflePubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, raffleID string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev raffleChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.RaffleID != "" {
				handler(ctx, ev.RaffleID)
			}
		}
	}
}
