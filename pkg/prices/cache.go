package prices

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"zerodust/pkg/types"
)

// DefaultTTL keeps a snapshot for 10 minutes, matching the backend's
// upstream rate budget.
const DefaultTTL = 10 * time.Minute

// Testnet gas tokens have no market; price lookups go through their mainnet
// equivalents.
var mainnetAliases = map[string]string{
	"TBNB":  "BNB",
	"MATIC": "POL", // legacy Polygon symbol
}

// Source provides the full price-by-symbol snapshot.
type Source interface {
	GetPrices(ctx context.Context) (map[string]types.TokenPrice, error)
}

// Cache memoizes the whole price snapshot for a TTL. A fresh entry for any
// symbol implies trust in the entire snapshot, so refreshes always replace
// it wholesale.
type Cache struct {
	src Source
	ttl time.Duration
	log *logrus.Logger

	mu        sync.Mutex
	snapshot  map[string]types.TokenPrice
	fetchedAt time.Time
}

// NewCache creates a price cache. A ttl of 0 uses DefaultTTL.
func NewCache(src Source, ttl time.Duration, log *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logrus.New()
	}
	return &Cache{src: src, ttl: ttl, log: log}
}

// Get returns the USD price for symbol. ok is false when the snapshot has no
// entry for it; an unknown price is never reported as zero-by-accident.
func (c *Cache) Get(ctx context.Context, symbol string) (price float64, ok bool, err error) {
	symbol = normalizeSymbol(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil || time.Since(c.fetchedAt) >= c.ttl {
		snapshot, err := c.src.GetPrices(ctx)
		if err != nil {
			return 0, false, err
		}
		c.snapshot = snapshot
		c.fetchedAt = time.Now()
		c.log.WithField("symbols", len(snapshot)).Debug("price snapshot refreshed")
	}

	entry, ok := c.snapshot[symbol]
	if !ok {
		return 0, false, nil
	}
	return entry.PriceUsd, true, nil
}

// Clear drops the snapshot so the next Get refetches.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.fetchedAt = time.Time{}
}

func normalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if mainnet, ok := mainnetAliases[symbol]; ok {
		return mainnet
	}
	return symbol
}
