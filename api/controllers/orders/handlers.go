package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/vitrine-checkout/api/responses"
	"github.com/angelmondragon/vitrine-checkout/api/validators"
	internalorders "github.com/angelmondragon/vitrine-checkout/internal/orders"
	"github.com/angelmondragon/vitrine-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
)

const (
	maxQueryLen    = 120
	maxRecentLimit = 100
)

// List returns the store's orders flattened to one row per order, filtered by
// q, status and period.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		storeID, err := validators.ParsePathID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), storeID, r.Header.Get("Authorization"), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, rows, len(rows))
	}
}

// Recent returns the newest orders. An optional limit (1-100) caps the rows.
func Recent(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		storeID, err := validators.ParsePathID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxRecentLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Recent(r.Context(), storeID, r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total := len(rows)
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		responses.WriteList(w, rows, total)
	}
}

func Summary(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		storeID, err := validators.ParsePathID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), storeID, r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func parseFilters(r *http.Request) (internalorders.Filters, error) {
	query := r.URL.Query()
	filters := internalorders.Filters{
		Query: validators.SanitizeString(query.Get("q"), maxQueryLen),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return internalorders.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]string{"status": raw})
		}
		filters.Status = &status
	}
	period, err := internalorders.ParsePeriod(query.Get("period"))
	if err != nil {
		return internalorders.Filters{}, err
	}
	filters.Period = period
	return filters, nil
}
