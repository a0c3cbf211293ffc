package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "threadboard:document"

// RedisPersister stores the encoded document under a single key.
type RedisPersister struct {
	client *redis.Client
	key    string
}

func NewRedisPersister(client *redis.Client, key string) *RedisPersister {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisPersister{client: client, key: key}
}

func (p *RedisPersister) Load(ctx context.Context) (*Document, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDocument
		}
		return nil, errors.Wrapf(err, "get %s", p.key)
	}
	return decodeDocument(data)
}

func (p *RedisPersister) Save(ctx context.Context, doc *Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", p.key)
	}
	return nil
}

func (p *RedisPersister) Close() error {
	return p.client.Close()
}
