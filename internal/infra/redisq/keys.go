package redisq

import (
	"fmt"
	"workq/internal/domain"
)

// Layout under the configured prefix:
//
//	item:{id}                         hash, one per work item
//	items                             zset of every id, scored by insert sequence
//	seq                               insert sequence counter
//	idx:{kind}:status:{n}             zset of ids with that status
//	idx:{kind}:owner:{type}:{id}      zset of ids made by that owner

func (c *Client) itemKey(id string) string { return c.Cfg.KeyPrefix + "item:" + id }

func (c *Client) itemsKey() string { return c.Cfg.KeyPrefix + "items" }

func (c *Client) seqKey() string { return c.Cfg.KeyPrefix + "seq" }

func (c *Client) statusKey(kind domain.Kind, s domain.Status) string {
	return fmt.Sprintf("%sidx:%s:status:%d", c.Cfg.KeyPrefix, kind, int(s))
}

func (c *Client) ownerKey(kind domain.Kind, o domain.OwnerRef) string {
	return fmt.Sprintf("%sidx:%s:owner:%s:%d", c.Cfg.KeyPrefix, kind, o.Type, o.ID)
}

// candidateKey picks the narrowest index that still covers every item f can
// match. Filter.Match does the rest.
func (c *Client) candidateKey(f domain.Filter) string {
	if f.Kind != "" && f.Owner != nil {
		return c.ownerKey(f.Kind, *f.Owner)
	}
	if f.Kind != "" && len(f.Statuses) == 1 {
		return c.statusKey(f.Kind, f.Statuses[0])
	}
	return c.itemsKey()
}
