package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Catalog holds stock counts and buy/sell prices keyed by product name.
// Stock may go negative; overselling is corrected by hand.
type Catalog struct {
	Stock      map[string]int             `json:"stock"`
	BuyPrices  map[string]decimal.Decimal `json:"buyPrice"`
	SellPrices map[string]decimal.Decimal `json:"sellPrice"`
}

var defaultStock = map[string]int{
	"Maggi":             24,
	"Kurkure":           9,
	"Bhujia":            2,
	"Ariel":             1,
	"Bhoot Chips":       5,
	"Bingo Onion Chips": 5,
}

var defaultSellPrices = map[string]int64{
	"Maggi":             20,
	"Kurkure":           20,
	"Bhujia":            10,
	"Ariel":             10,
	"Bhoot Chips":       10,
	"Bingo Onion Chips": 10,
}

// Default returns the first-boot catalog.
func Default() *Catalog {
	c := &Catalog{
		Stock:      make(map[string]int, len(defaultStock)),
		BuyPrices:  make(map[string]decimal.Decimal, len(defaultStock)),
		SellPrices: make(map[string]decimal.Decimal, len(defaultSellPrices)),
	}
	for name, qty := range defaultStock {
		c.Stock[name] = qty
		c.BuyPrices[name] = decimal.Zero
	}
	for name, price := range defaultSellPrices {
		c.SellPrices[name] = decimal.NewFromInt(price)
	}
	return c
}

// EnsureMaps initializes nil maps after decoding a partial snapshot.
func (c *Catalog) EnsureMaps() {
	if c.Stock == nil {
		c.Stock = map[string]int{}
	}
	if c.BuyPrices == nil {
		c.BuyPrices = map[string]decimal.Decimal{}
	}
	if c.SellPrices == nil {
		c.SellPrices = map[string]decimal.Decimal{}
	}
}

// AdjustStock applies delta to a known product. Unknown names are ignored.
func (c *Catalog) AdjustStock(name string, delta int) bool {
	current, ok := c.Stock[name]
	if !ok {
		return false
	}
	c.Stock[name] = current + delta
	return true
}

// SellPrice returns the current sell price and whether the product is priced.
func (c *Catalog) SellPrice(name string) (decimal.Decimal, bool) {
	price, ok := c.SellPrices[name]
	return price, ok
}

// BuyPrice returns the current buy price, zero when unknown.
func (c *Catalog) BuyPrice(name string) decimal.Decimal {
	if price, ok := c.BuyPrices[name]; ok {
		return price
	}
	return decimal.Zero
}

// StockSnapshot copies the stock map.
func (c *Catalog) StockSnapshot() map[string]int {
	out := make(map[string]int, len(c.Stock))
	for name, qty := range c.Stock {
		out[name] = qty
	}
	return out
}

// ReplaceStock swaps the whole stock map. New product names are accepted as-is.
func (c *Catalog) ReplaceStock(stock map[string]int) {
	next := make(map[string]int, len(stock))
	for name, qty := range stock {
		next[name] = qty
	}
	c.Stock = next
}

// ReplaceBuyPrices swaps the whole buy-price map.
func (c *Catalog) ReplaceBuyPrices(prices map[string]decimal.Decimal) {
	c.BuyPrices = copyPrices(prices)
}

// ReplaceSellPrices swaps the whole sell-price map.
func (c *Catalog) ReplaceSellPrices(prices map[string]decimal.Decimal) {
	c.SellPrices = copyPrices(prices)
}

// Products returns every stocked product name in sorted order.
func (c *Catalog) Products() []string {
	names := make([]string, 0, len(c.Stock))
	for name := range c.Stock {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CopyPrices returns an independent copy of a price map.
func CopyPrices(prices map[string]decimal.Decimal) map[string]decimal.Decimal {
	return copyPrices(prices)
}

func copyPrices(prices map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(prices))
	for name, price := range prices {
		out[name] = price
	}
	return out
}
