// Package badger provides an agent.Cache on top of BadgerDB. Values are CBOR
// encoded and every write carries the configured TTL, so idle sessions expire
// without a sweeper.
package badger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/tbxark/ticketagent/agent"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("badger: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// form values decode into map[string]any, not map[any]any
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("badger: CBOR decoder initialization failed: " + err.Error())
	}
}

// Open opens a database at path. An empty path opens an in-memory database.
func Open(path string) (*dgbadger.DB, error) {
	opts := dgbadger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %q: %w", path, err)
	}
	return db, nil
}

// Cache stores values of type S. A zero ttl keeps entries forever.
type Cache[S any] struct {
	db  *dgbadger.DB
	ttl time.Duration
}

var _ agent.Cache[int] = (*Cache[int])(nil)

func NewCache[S any](db *dgbadger.DB, ttl time.Duration) *Cache[S] {
	return &Cache[S]{db: db, ttl: ttl}
}

func (c *Cache[S]) Set(ctx context.Context, key string, val S) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encMode.Marshal(val)
	if err != nil {
		return fmt.Errorf("badger: encode %s: %w", key, err)
	}
	return c.db.Update(func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry([]byte(key), raw)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (c *Cache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var zero S
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	var raw []byte
	err := c.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("badger: get %s: %w", key, err)
	}
	var val S
	if err := decMode.Unmarshal(raw, &val); err != nil {
		return zero, false, fmt.Errorf("badger: decode %s: %w", key, err)
	}
	return val, true, nil
}

func (c *Cache[S]) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, dgbadger.ErrKeyNotFound) {
		return fmt.Errorf("badger: delete %s: %w", key, err)
	}
	return nil
}

func (c *Cache[S]) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := c.db.View(func(txn *dgbadger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger: exists %s: %w", key, err)
	}
	return true, nil
}
