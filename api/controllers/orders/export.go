package orders

import (
	"encoding/csv"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/humidityzone-backend/api/responses"
	"github.com/angelmondragon/humidityzone-backend/api/validators"
	internalorders "github.com/angelmondragon/humidityzone-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

const utf8BOM = "\ufeff"

var exportHeader = []string{
	"txn_id",
	"order_date",
	"status",
	"currency",
	"customer_name",
	"customer_email",
	"customer_address",
	"customer_city",
	"customer_postal_code",
	"customer_country",
	"customer_phone",
	"fulfillment_status",
	"tracking_number",
	"total_price",
	"items",
}

// Export streams the filtered orders as a spreadsheet-friendly CSV attachment.
// Filters are read from the query string or a form body.
func Export(repo Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		rows, err := repo.ExportOrders(r.Context(), internalorders.ExportFilters{
			Email: validators.SanitizeString(r.FormValue("email"), 320),
			TxnID: validators.SanitizeString(r.FormValue("txn_id"), 128),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export orders"))
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=orders.csv")
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(utf8BOM)); err != nil {
			return
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(exportHeader); err != nil {
			return
		}
		for _, row := range rows {
			if err := cw.Write(exportRecord(row)); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "orders.export.write_failed", err)
				}
				return
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil && logg != nil {
			logg.Error(r.Context(), "orders.export.flush_failed", err)
		}
	}
}

// exportRecord reports what the customer actually paid under total_price.
func exportRecord(row internalorders.ExportRow) []string {
	return []string{
		row.TxnID,
		row.OrderDate.UTC().Format(time.RFC3339),
		string(row.Status),
		row.Currency,
		row.CustomerName,
		row.CustomerEmail,
		row.CustomerAddress,
		row.CustomerCity,
		row.CustomerPostalCode,
		row.CustomerCountry,
		formatPhone(row.CustomerPhone),
		row.FulfillmentStatus,
		row.TrackingNumber,
		row.CustomerPaid.StringFixed(2),
		row.Items,
	}
}

func formatPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
