package orders

import (
	"context"
	"net/http"
	"strconv"

	"github.com/angelmondragon/humidityzone-backend/api/responses"
	"github.com/angelmondragon/humidityzone-backend/api/validators"
	"github.com/angelmondragon/humidityzone-backend/internal/cron"
	internalorders "github.com/angelmondragon/humidityzone-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/pagination"
)

// Reader is the admin read surface of the orders repository.
type Reader interface {
	ListOrders(ctx context.Context, filters internalorders.ListFilters) (*internalorders.OrderList, error)
	FindOrderDetail(ctx context.Context, orderID int64) (*internalorders.OrderDetail, error)
	ExportOrders(ctx context.Context, filters internalorders.ExportFilters) ([]internalorders.ExportRow, error)
}

// Syncer runs one fulfillment sync pass.
type Syncer interface {
	Sync(ctx context.Context) (*cron.SyncReport, error)
}

// Create stores the storefront checkout as a Pending order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var input internalorders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithTxnID(ctx, input.TxnID)
		}
		result, err := svc.CreateOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// List returns one page of orders for the back office.
func List(repo Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, pagination.MaxPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sort, err := validators.ParseQueryEnum(r, "sort", "desc", "asc", "desc")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListOrders(r.Context(), internalorders.ListFilters{
			Email: validators.SanitizeString(r.URL.Query().Get("email"), 320),
			TxnID: validators.SanitizeString(r.URL.Query().Get("txn_id"), 128),
			Sort:  sort,
			Page:  page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders"))
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order with its items.
func Detail(repo Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := repo.FindOrderDetail(r.Context(), orderID)
		if err != nil {
			if internalorders.IsNotFound(err) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order"))
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Sync publishes Completed orders that never reached the fulfillment platform.
func Sync(syncer Syncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if syncer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment sync unavailable"))
			return
		}

		report, err := syncer.Sync(r.Context())
		if err != nil && (report == nil || report.Failed == 0) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil && logg != nil {
			// per-order failures are already counted in the report
			logg.WarnErr(r.Context(), "orders.sync.partial", err)
		}
		responses.WriteSuccess(w, map[string]any{
			"message":      syncMessage(report),
			"found":        report.Found,
			"synced_count": report.Synced,
			"failed_count": report.Failed,
		})
	}
}

func syncMessage(report *cron.SyncReport) string {
	if report.Found == 0 {
		return "No orders to sync"
	}
	return "Synced " + strconv.Itoa(report.Synced) + " orders"
}
