package controllers

import (
	"net/http"

	"github.com/hostelmart/hostelmart-backend/api/responses"
	"github.com/hostelmart/hostelmart-backend/api/validators"
	"github.com/hostelmart/hostelmart-backend/internal/reports"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
)

func TodayReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.Daily(r.Context()))
	}
}

func TopCustomers(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.TopCustomers(r.Context(), validators.MonthQuery(r)))
	}
}

func CustomersReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.Customers(r.Context(), validators.MonthQuery(r)))
	}
}

func CustomersLifetime(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]any{"customers": svc.Lifetime(r.Context())})
	}
}

func DistributorMonthSummary(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.Distributor(r.Context(), validators.MonthQuery(r)))
	}
}

func ExportCustomersReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		export, err := svc.ExportCustomers(r.Context(), validators.MonthQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render customers workbook"))
			return
		}
		responses.WriteFile(w, export.Filename, reports.XLSXContentType, export.Content)
	}
}

func ExportCustomersLifetime(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		export, err := svc.ExportLifetime(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render lifetime workbook"))
			return
		}
		responses.WriteFile(w, export.Filename, reports.XLSXContentType, export.Content)
	}
}
