// Package reports folds the order log into read-only summaries. Cancelled
// orders never count.
package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/internal/period"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

// TopCustomerLimit caps the top-customers list.
const TopCustomerLimit = 3

// DailyReport covers today plus a running total for the current month.
type DailyReport struct {
	Date         string          `json:"date"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
	Orders       int             `json:"orders"`
	Items        map[string]int  `json:"items"`
	Month        string          `json:"month"`
	MonthRevenue decimal.Decimal `json:"monthRevenue"`
	MonthProfit  decimal.Decimal `json:"monthProfit"`
	MonthOrders  int             `json:"monthOrders"`
}

// CustomerRow is one customer's spend. Manual marks a ledger override.
type CustomerRow struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Room        string          `json:"room"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	OrdersCount int             `json:"ordersCount"`
	Manual      bool            `json:"manual"`
}

// BucketSummary aggregates one distributor bucket for a month.
type BucketSummary struct {
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
	Items  map[string]int  `json:"items"`
}

// DistributorSummary always holds all three buckets.
type DistributorSummary struct {
	Month   string                                    `json:"month"`
	Buckets map[enums.DistributorBucket]BucketSummary `json:"buckets"`
}

// Daily folds orders placed on now's store-local date and month.
func Daily(orders []models.Order, now time.Time, loc *time.Location) DailyReport {
	month := period.Month(now, loc)
	report := DailyReport{
		Date:         now.In(location(loc)).Format("2006-01-02"),
		Revenue:      decimal.Zero,
		Profit:       decimal.Zero,
		Items:        map[string]int{},
		Month:        month,
		MonthRevenue: decimal.Zero,
		MonthProfit:  decimal.Zero,
	}
	for i := range orders {
		order := &orders[i]
		if order.IsCancelled() {
			continue
		}
		if period.Month(order.CreatedAt, loc) == month {
			report.MonthRevenue = report.MonthRevenue.Add(order.Total)
			report.MonthProfit = report.MonthProfit.Add(order.ReportProfit())
			report.MonthOrders++
		}
		if !period.SameDay(order.CreatedAt, now, loc) {
			continue
		}
		report.Revenue = report.Revenue.Add(order.Total)
		report.Profit = report.Profit.Add(order.ReportProfit())
		report.Orders++
		for _, item := range order.Items {
			report.Items[item.Name] += item.Qty
		}
	}
	return report
}

// Customers groups a month's orders by customer key; manual month entries
// replace computed rows with the same key.
func Customers(orders []models.Order, ledger models.CustomerLedger, month string, loc *time.Location) []CustomerRow {
	computed := groupCustomers(orders, func(order *models.Order) bool {
		return period.Month(order.CreatedAt, loc) == month
	})
	return applyOverrides(computed, ledger.Monthly[month])
}

// Lifetime groups every order by customer key with lifetime overrides.
func Lifetime(orders []models.Order, ledger models.CustomerLedger) []CustomerRow {
	computed := groupCustomers(orders, func(*models.Order) bool { return true })
	return applyOverrides(computed, ledger.Lifetime)
}

// Top returns at most TopCustomerLimit rows of an already sorted report.
func Top(rows []CustomerRow) []CustomerRow {
	if len(rows) > TopCustomerLimit {
		return rows[:TopCustomerLimit]
	}
	return rows
}

// Distributor folds a month's orders by the bucket recorded at settlement.
func Distributor(orders []models.Order, month string, loc *time.Location) DistributorSummary {
	summary := DistributorSummary{
		Month:   month,
		Buckets: make(map[enums.DistributorBucket]BucketSummary, len(enums.DistributorBuckets)),
	}
	for _, bucket := range enums.DistributorBuckets {
		summary.Buckets[bucket] = BucketSummary{Total: decimal.Zero, Items: map[string]int{}}
	}
	for i := range orders {
		order := &orders[i]
		if order.IsCancelled() || period.Month(order.CreatedAt, loc) != month {
			continue
		}
		entry, ok := summary.Buckets[order.CollectFromRoom]
		if !ok {
			continue
		}
		entry.Orders++
		entry.Total = entry.Total.Add(order.Total)
		for _, item := range order.Items {
			entry.Items[item.Name] += item.Qty
		}
		summary.Buckets[order.CollectFromRoom] = entry
	}
	return summary
}

func groupCustomers(orders []models.Order, include func(*models.Order) bool) map[string]CustomerRow {
	rows := map[string]CustomerRow{}
	for i := range orders {
		order := &orders[i]
		if order.IsCancelled() || order.ExcludeFromCustomerStats || !include(order) {
			continue
		}
		key := models.CustomerKey(order.Name, order.Room)
		row, ok := rows[key]
		if !ok {
			row = CustomerRow{Key: key, TotalSpent: decimal.Zero}
		}
		row.Name = strings.TrimSpace(order.Name)
		row.Room = strings.TrimSpace(order.Room)
		row.TotalSpent = row.TotalSpent.Add(order.Total)
		row.OrdersCount++
		rows[key] = row
	}
	return rows
}

func applyOverrides(rows map[string]CustomerRow, overrides map[string]models.LedgerEntry) []CustomerRow {
	for key, entry := range overrides {
		rows[key] = CustomerRow{
			Key:         key,
			Name:        entry.Name,
			Room:        entry.Room,
			TotalSpent:  entry.TotalSpent,
			OrdersCount: entry.OrdersCount,
			Manual:      true,
		}
	}
	out := make([]CustomerRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].TotalSpent.Cmp(out[j].TotalSpent); cmp != 0 {
			return cmp > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
