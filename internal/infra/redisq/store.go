package redisq

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
	"workq/internal/domain"
	"workq/internal/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ ports.Store = (*Client)(nil)

func (c *Client) FindOne(ctx context.Context, f domain.Filter) (*domain.WorkItem, error) {
	items, err := c.find(ctx, c.Rdb, f, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ports.ErrNotFound
	}
	return &items[0], nil
}

func (c *Client) FindMany(ctx context.Context, f domain.Filter) ([]domain.WorkItem, error) {
	return c.find(ctx, c.Rdb, f, 0)
}

func (c *Client) InsertIfAbsent(ctx context.Context, f domain.Filter, defaults domain.WorkItem) (*domain.WorkItem, bool, error) {
	var (
		out     domain.WorkItem
		created bool
	)

	txf := func(tx *redis.Tx) error {
		ids, err := c.candidates(ctx, tx, f)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			keys := make([]string, len(ids))
			for i, id := range ids {
				keys[i] = c.itemKey(id)
			}
			// Any status change on a candidate invalidates this attempt.
			if err := tx.Watch(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		items, err := c.load(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, w := range items {
			if f.Match(w) {
				out, created = w, false
				return nil
			}
		}

		seq, err := tx.Incr(ctx, c.seqKey()).Result()
		if err != nil {
			return err
		}
		w := defaults
		w.HandlerID = domain.CopyHandlerID(defaults.HandlerID)
		w.ID = uuid.NewString()
		now := time.Now().UTC()
		w.Created, w.Modified = now, now

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			z := redis.Z{Score: float64(seq), Member: w.ID}
			p.HSet(ctx, c.itemKey(w.ID), itemToMap(w, seq))
			p.ZAdd(ctx, c.itemsKey(), z)
			p.ZAdd(ctx, c.statusKey(w.Kind, w.Status), z)
			p.ZAdd(ctx, c.ownerKey(w.Kind, w.Owner), z)
			return nil
		})
		if err != nil {
			return err
		}
		out, created = w, true
		return nil
	}

	watch := c.candidateKey(f)
	if f.ID != "" {
		watch = c.itemKey(f.ID)
	}
	if err := c.withRetry(ctx, txf, watch); err != nil {
		return nil, false, fmt.Errorf("redis insert if absent: %w", err)
	}
	return &out, created, nil
}

func (c *Client) Save(ctx context.Context, w *domain.WorkItem, fields ...domain.Field) error {
	values := make([]any, 0, 2*len(fields)+2)
	for _, f := range fields {
		v, err := fieldValue(*w, f)
		if err != nil {
			return fmt.Errorf("save %s: %w", w.ID, err)
		}
		values = append(values, string(f), v)
	}

	key := c.itemKey(w.ID)
	var modified time.Time
	txf := func(tx *redis.Tx) error {
		h, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(h) == 0 {
			return ports.ErrNotFound
		}
		cur, err := itemFromMap(h)
		if err != nil {
			return err
		}
		seq, err := strconv.ParseInt(h["seq"], 10, 64)
		if err != nil {
			return fmt.Errorf("item %s seq: %w", w.ID, err)
		}

		modified = time.Now().UTC()
		args := append(slices.Clip(values), "modified", modified.Format(time.RFC3339Nano))
		moved := cur.Status != w.Status && slices.Contains(fields, domain.FieldStatus)

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, args...)
			if moved {
				p.ZRem(ctx, c.statusKey(cur.Kind, cur.Status), w.ID)
				p.ZAdd(ctx, c.statusKey(cur.Kind, w.Status), redis.Z{Score: float64(seq), Member: w.ID})
			}
			return nil
		})
		return err
	}

	if err := c.withRetry(ctx, txf, key); err != nil {
		return fmt.Errorf("save %s: %w", w.ID, err)
	}
	w.Modified = modified
	return nil
}

func (c *Client) withRetry(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < c.MaxTxRetries; attempt++ {
		err := c.Rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", c.MaxTxRetries, redis.TxFailedErr)
}

func (c *Client) candidates(ctx context.Context, r redis.Cmdable, f domain.Filter) ([]string, error) {
	if f.ID != "" {
		return []string{f.ID}, nil
	}
	return r.ZRange(ctx, c.candidateKey(f), 0, -1).Result()
}

// find returns items matching f in insert order, stopping at limit when it
// is positive.
func (c *Client) find(ctx context.Context, r redis.Cmdable, f domain.Filter, limit int) ([]domain.WorkItem, error) {
	ids, err := c.candidates(ctx, r, f)
	if err != nil {
		return nil, fmt.Errorf("redis candidates: %w", err)
	}
	items, err := c.load(ctx, r, ids)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, w := range items {
		if !f.Match(w) {
			continue
		}
		out = append(out, w)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *Client) load(ctx context.Context, r redis.Cmdable, ids []string) ([]domain.WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := r.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, c.itemKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis load items: %w", err)
	}

	items := make([]domain.WorkItem, 0, len(ids))
	for _, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		w, err := itemFromMap(h)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, nil
}
