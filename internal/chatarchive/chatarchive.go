package chatarchive

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cybermeetgo/internal/ws"
)

const stream = "chat_stream"

// Archiver is the write-behind side of chat persistence: the gateway hands
// it each accepted message and it appends the record to a Redis stream.
type Archiver struct {
	rdc *redis.Client
}

func New(rdc *redis.Client) *Archiver { return &Archiver{rdc: rdc} }

// Archive appends one chat record to the stream. Fire-and-forget: failures
// are logged and never surfaced to the sender.
func (a *Archiver) Archive(ctx context.Context, rec ws.ChatRecord) {
	err := a.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"room":   rec.Room,
			"sender": rec.SenderID,
			"name":   rec.SenderName,
			"text":   rec.Text,
			"at":     strconv.FormatInt(rec.At, 10),
		},
	}).Err()
	if err != nil {
		zap.L().Warn("archive.xadd", zap.String("room", rec.Room), zap.Error(err))
	}
}

// Run tails the stream and persists every message.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				zap.L().Warn("archive.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 {
				continue
			}
			entries := res[0].Messages
			if err := persist(ctx, db, entries); err != nil {
				zap.L().Warn("archive.persist", zap.Error(err))
			}
			lastID = entries[len(entries)-1].ID
		}
	}()
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO messages (room_code, sender_id, sender_name, content, sent_at)
	             VALUES ($1, $2, $3, $4, to_timestamp($5))
	             ON CONFLICT DO NOTHING`
	for _, m := range msgs {
		roomCode, _ := m.Values["room"].(string)
		sender, _ := m.Values["sender"].(string)
		name, _ := m.Values["name"].(string)
		text, _ := m.Values["text"].(string)
		at, _ := m.Values["at"].(string)

		ts, _ := strconv.ParseInt(at, 10, 64)
		if _, err := tx.ExecContext(ctx, ins, roomCode, sender, name, text, ts); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
