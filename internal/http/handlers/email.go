package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/keyreg/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetPublicKeyByEmail(ctx context.Context, email string) (string, error)
}

type EmailHandler struct {
	users   UserReader
	log     *slog.Logger
	timeout time.Duration
}

func NewEmailHandler(users UserReader, log *slog.Logger, timeout time.Duration) *EmailHandler {
	return &EmailHandler{users: users, log: log, timeout: timeout}
}

// CheckEmail answers GET /email/:email.
func (h *EmailHandler) CheckEmail(ctx *gin.Context) {
	email := ctx.Param("email")

	if err := user.ValidateEmail(email); err != nil {
		RespondInvalidEmail(ctx)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	key, err := h.users.GetPublicKeyByEmail(cctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.JSON(http.StatusOK, user.NotFound())
			return
		}

		respondStoreFailure(ctx, h.log, "users.lookup", err, "Could not look up email")
		return
	}

	ctx.JSON(http.StatusOK, user.Found(key))
}
