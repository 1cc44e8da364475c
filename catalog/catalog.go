// Package catalog keeps collection and index definitions.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aep/scopedb/bus"
	"github.com/aep/scopedb/kv"
	"github.com/lmittmann/tint"
	"github.com/maypok86/otter"
	"go.opentelemetry.io/otel"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

var tracer = otel.Tracer("github.com/aep/scopedb/catalog")

// SystemAuthorizations is the collection name that scopes non-admin reads of
// client authorization records. It cannot be created or deleted.
const SystemAuthorizations = "client_authorization"

const invalidateTopic = "catalog.invalidate"

// Catalog is the collection registry and index manager.
//
// Resolved collections are cached with a TTL and dropped on change, locally
// and on every node listening on the bus. Index definitions are not cached:
// they are read in the same snapshot as the documents they describe.
type Catalog struct {
	kv     kv.KV
	bus    bus.Bus
	cache  otter.Cache[string, *Collection]
	sub    bus.Subscription
	cancel context.CancelFunc
}

func New(k kv.KV, b bus.Bus, ttl time.Duration) (*Catalog, error) {
	cache, err := otter.MustBuilder[string, *Collection](10000).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("catalog cache: %w", err)
	}

	c := &Catalog{
		kv:    k,
		bus:   b,
		cache: cache,
	}

	if b != nil {
		sub, err := b.Subscribe(invalidateTopic)
		if err != nil {
			cache.Close()
			return nil, err
		}
		ctx, cancel := context.WithCancel(context.Background())
		c.sub = sub
		c.cancel = cancel
		go c.watch(ctx)
	}

	return c, nil
}

func (c *Catalog) watch(ctx context.Context) {
	for {
		msg, err := c.sub.Recv(ctx)
		if err != nil {
			return
		}
		c.cache.Delete(string(msg))
	}
}

func (c *Catalog) invalidate(name string) {
	c.cache.Delete(name)
	if c.bus == nil {
		return
	}
	if err := c.bus.Send(invalidateTopic, []byte(name)); err != nil {
		log.Warn("cache invalidation not sent", "collection", name, "err", err)
	}
}

func (c *Catalog) Close() {
	if c.cancel != nil {
		c.cancel()
		c.sub.Close()
	}
	c.cache.Close()
}
