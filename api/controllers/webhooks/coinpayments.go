package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/humidityzone-backend/api/responses"
	"github.com/angelmondragon/humidityzone-backend/internal/ipn"
	"github.com/angelmondragon/humidityzone-backend/pkg/coinpayments"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

const maxNotificationBytes = 64 << 10

// NotificationService reconciles a verified payment notification.
type NotificationService interface {
	Handle(ctx context.Context, n ipn.Notification) (*ipn.Result, error)
}

// CoinPaymentsIPN verifies the HMAC over the raw body before anything else is
// parsed; a bad signature never reaches the service.
func CoinPaymentsIPN(svc NotificationService, ipnSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ipn service unavailable"))
			return
		}
		if ipnSecret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "IPN secret missing"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if !coinpayments.VerifySignature(payload, r.Header.Get(coinpayments.SignatureHeader), ipnSecret) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Invalid signature"))
			return
		}

		notification, err := ipn.ParseNotification(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Handle(ctx, notification)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
