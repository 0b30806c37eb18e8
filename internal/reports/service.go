package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hostelmart/hostelmart-backend/internal/period"
	"github.com/hostelmart/hostelmart-backend/internal/state"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

type stateViewer interface {
	View(fn func(*state.Snapshot))
}

// CustomersReport is a month's customer rows.
type CustomersReport struct {
	Month     string        `json:"month"`
	Customers []CustomerRow `json:"customers"`
}

// Export is a rendered workbook ready to download.
type Export struct {
	Filename string
	Content  []byte
}

// Service answers report queries against the live state.
type Service interface {
	Daily(ctx context.Context) DailyReport
	Customers(ctx context.Context, month string) CustomersReport
	TopCustomers(ctx context.Context, month string) CustomersReport
	Lifetime(ctx context.Context) []CustomerRow
	Distributor(ctx context.Context, month string) DistributorSummary
	ExportCustomers(ctx context.Context, month string) (Export, error)
	ExportLifetime(ctx context.Context) (Export, error)
}

type service struct {
	state stateViewer
	loc   *time.Location
	now   func() time.Time
}

// NewService builds the report service. A nil clock uses time.Now.
func NewService(st stateViewer, loc *time.Location, clock func() time.Time) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("state required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{state: st, loc: loc, now: clock}, nil
}

func (s *service) snapshot() ([]models.Order, models.CustomerLedger) {
	var (
		orders []models.Order
		ledger models.CustomerLedger
	)
	s.state.View(func(snap *state.Snapshot) {
		orders = snap.CloneOrders()
		ledger = cloneLedger(snap.Ledger)
	})
	return orders, ledger
}

func (s *service) month(raw string) string {
	return period.ParseMonth(strings.TrimSpace(raw), s.now(), s.loc)
}

func (s *service) Daily(ctx context.Context) DailyReport {
	orders, _ := s.snapshot()
	return Daily(orders, s.now(), s.loc)
}

func (s *service) Customers(ctx context.Context, month string) CustomersReport {
	month = s.month(month)
	orders, ledger := s.snapshot()
	return CustomersReport{Month: month, Customers: Customers(orders, ledger, month, s.loc)}
}

func (s *service) TopCustomers(ctx context.Context, month string) CustomersReport {
	report := s.Customers(ctx, month)
	report.Customers = Top(report.Customers)
	return report
}

func (s *service) Lifetime(ctx context.Context) []CustomerRow {
	orders, ledger := s.snapshot()
	return Lifetime(orders, ledger)
}

func (s *service) Distributor(ctx context.Context, month string) DistributorSummary {
	month = s.month(month)
	orders, _ := s.snapshot()
	return Distributor(orders, month, s.loc)
}

func (s *service) ExportCustomers(ctx context.Context, month string) (Export, error) {
	report := s.Customers(ctx, month)
	content, err := CustomersWorkbook("Customers "+report.Month, report.Customers)
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: fmt.Sprintf("customers-%s.xlsx", report.Month), Content: content}, nil
}

func (s *service) ExportLifetime(ctx context.Context) (Export, error) {
	content, err := CustomersWorkbook("Customers lifetime", s.Lifetime(ctx))
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: "customers-lifetime.xlsx", Content: content}, nil
}

func cloneLedger(in models.CustomerLedger) models.CustomerLedger {
	out := models.NewCustomerLedger()
	for month, entries := range in.Monthly {
		copied := make(map[string]models.LedgerEntry, len(entries))
		for key, entry := range entries {
			copied[key] = entry
		}
		out.Monthly[month] = copied
	}
	for key, entry := range in.Lifetime {
		out.Lifetime[key] = entry
	}
	return out
}
