package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rohits-web03/dropkeep/internal/api/middleware"
	"github.com/rohits-web03/dropkeep/internal/repositories"
	"github.com/rohits-web03/dropkeep/internal/upload"
	"github.com/rohits-web03/dropkeep/internal/utils"
)

// Record-association hint headers set by the widget from the host form.
// Trusted only as hints; real authorization happens at attach time.
const (
	RecordIDHeader    = "X-RecordID"
	RecordClassHeader = "X-RecordClassName"
)

type Handler struct {
	Uploads *upload.Service
}

func NewHandler(svc *upload.Service) *Handler {
	return &Handler{Uploads: svc}
}

func recordHint(r *http.Request) upload.RecordHint {
	id, _ := strconv.ParseInt(r.Header.Get(RecordIDHeader), 10, 64)
	return upload.RecordHint{
		ObjectID:    id,
		ObjectClass: r.Header.Get(RecordClassHeader),
	}
}

func actorOr401(w http.ResponseWriter, r *http.Request) (upload.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
	}
	return actor, ok
}

// writeError maps service errors onto the wire taxonomy: validation failures
// as structured JSON, authorization failures as 403, missing entities as
// 404, everything protocol/state related as 400.
func writeError(w http.ResponseWriter, err error) {
	var ve *upload.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Validation failed",
			Errors:  map[string][]string{ve.Field: ve.Messages},
		})
	case errors.Is(err, upload.ErrNotTracked), errors.Is(err, upload.ErrOwnerMismatch):
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: err.Error(),
		})
	case errors.Is(err, repositories.ErrFileNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: err.Error(),
		})
	default:
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: err.Error(),
		})
	}
}
