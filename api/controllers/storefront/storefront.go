package storefront

import (
	"context"
	"net/http"

	"github.com/angelmondragon/humidityzone-backend/api/responses"
	"github.com/angelmondragon/humidityzone-backend/api/validators"
	"github.com/angelmondragon/humidityzone-backend/internal/catalog"
	"github.com/angelmondragon/humidityzone-backend/internal/discounts"
	"github.com/angelmondragon/humidityzone-backend/internal/tracking"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

// Catalog is the read surface of the product catalog.
type Catalog interface {
	Products(ctx context.Context) ([]catalog.ProductView, error)
	Featured(ctx context.Context) ([]catalog.ProductView, error)
	Product(ctx context.Context, productID int64) (*catalog.ProductView, error)
}

// Tracker resolves tracking numbers to shipment progress.
type Tracker interface {
	Lookup(ctx context.Context, trackingNumber string) (*tracking.Result, error)
}

// CouponApplier prices a cart total under a coupon.
type CouponApplier interface {
	Apply(input discounts.ApplyInput) (*discounts.Result, error)
}

func Products(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		products, err := svc.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func FeaturedProducts(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		products, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func Product(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Product(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// Track looks up ?number= against fulfilled orders.
func Track(svc Tracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking unavailable"))
			return
		}
		number := validators.SanitizeString(r.URL.Query().Get("number"), 128)
		result, err := svc.Lookup(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ApplyDiscount answers 200 for unknown coupons with success=false.
func ApplyDiscount(svc CouponApplier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts unavailable"))
			return
		}
		var input discounts.ApplyInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Apply(input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
