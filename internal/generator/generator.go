package generator

import (
	"math/rand"
	"time"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/enums"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
)

// Generator produces random, range-constrained marketplace observations. Its
// only side effect is reading the clock; both the clock and the randomness
// source can be swapped for tests.
type Generator struct {
	now  func() time.Time
	intN func(n int) int
}

// New builds a generator backed by the wall clock and the default PRNG.
func New() *Generator {
	return &Generator{
		now:  time.Now,
		intN: rand.Intn,
	}
}

// NewWithSources builds a generator with explicit clock and randomness sources.
func NewWithSources(now func() time.Time, intN func(n int) int) *Generator {
	g := New()
	if now != nil {
		g.now = now
	}
	if intN != nil {
		g.intN = intN
	}
	return g
}

// Generate draws one observation. Each numeric field is uniform over a
// closed-open range; category is uniform over the fixed six-element set.
func (g *Generator) Generate() types.MarketplaceData {
	categories := enums.Categories()
	return types.MarketplaceData{
		Timestamp:           g.now().UnixMilli(),
		ActiveDeals:         g.intN(200) + 50,
		NewDeals:            g.intN(10),
		AverageDealValueUSD: g.intN(50000) + 5000,
		OffersSubmitted:     g.intN(30),
		UserViews:           g.intN(500),
		Category:            categories[g.intN(len(categories))],
	}
}
