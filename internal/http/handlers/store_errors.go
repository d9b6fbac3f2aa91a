package handlers

import (
	"errors"
	"log/slog"

	"github.com/geocoder89/keyreg/internal/domain/user"
	"github.com/geocoder89/keyreg/internal/observability"
	"github.com/gin-gonic/gin"
)

// respondStoreFailure logs the real cause and answers with a generic error.
// A blown request deadline is reported as 503, everything else as 500.
func respondStoreFailure(ctx *gin.Context, log *slog.Logger, op string, err error, message string) {
	log.ErrorContext(ctx.Request.Context(), "store operation failed",
		"op", op,
		"class", observability.ClassifyDBErr(err),
		"request_id", requestIDFrom(ctx),
		"err", err,
	)

	if errors.Is(err, user.ErrStoreTimeout) {
		RespondUnavailable(ctx, "Store is busy, try again shortly.")
		return
	}

	RespondInternal(ctx, message)
}
