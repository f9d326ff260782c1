package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/rohits-web03/dropkeep/internal/models"
	"github.com/rohits-web03/dropkeep/internal/upload"
	"github.com/rohits-web03/dropkeep/internal/utils"
)

// DELETE /api/v1/files/revert
// Revert godoc
// @Summary Cancel an upload
// @Description Deletes a temporary file the session uploaded earlier. The request body is the plaintext decimal file id the upload endpoint returned.
// @Tags Files
// @Accept plain
// @Produce json
// @Param X-SecurityID header string true "Session security token"
// @Success 200 {string} string "Deleted"
// @Failure 400 {object} utils.Payload "Invalid id or file not temporary"
// @Failure 403 {object} utils.Payload "Id not tracked by this session"
// @Router /api/v1/files/revert [delete]
func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64))
	if err != nil {
		writeError(w, err)
		return
	}
	id, ok := utils.ParseFileID(strings.TrimSpace(string(body)))
	if !ok {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file id",
		})
		return
	}

	if err := h.Uploads.Revert(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	utils.PlainResponse(w, http.StatusOK, "")
}

type attachRequest struct {
	ObjectID    int64  `json:"objectId"`
	ObjectClass string `json:"objectClass"`
	FileIDs     []uint `json:"fileIds"`
}

// POST /api/v1/files/attach
// Attach godoc
// @Summary Promote uploads to a record association
// @Description Runs on form submission: every candidate id must have been tracked by this session, and temporary files must belong to the caller. On success the files stop being temporary and are bound to the record. Any failure aborts the whole operation.
// @Tags Files
// @Accept json
// @Produce json
// @Param X-SecurityID header string true "Session security token"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload "Record has no identity"
// @Failure 403 {object} utils.Payload "Untracked id or owner mismatch"
// @Router /api/v1/files/attach [post]
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}
	if req.ObjectID == 0 || req.ObjectClass == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Record must be persisted before attaching files",
		})
		return
	}

	rec := upload.RecordRef{ID: req.ObjectID, Class: req.ObjectClass}
	if err := h.Uploads.Finalize(r.Context(), actor, rec, req.FileIDs); err != nil {
		writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Files attached successfully",
		Data: map[string]any{
			"fileIds": req.FileIDs,
		},
	})
}

// GET /api/v1/files/object
// ObjectFiles godoc
// @Summary List files attached to a record
// @Description Returns the non-temporary files bound to the given object, in the shape the widget uses to show existing uploads. Listing also tracks the returned ids for the session so a later save may re-reference them.
// @Tags Files
// @Produce json
// @Param objectId query int true "Record id"
// @Param objectClass query string true "Record class"
// @Success 200 {object} utils.Payload
// @Router /api/v1/files/object [get]
func (h *Handler) ObjectFiles(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	objectID, _ := strconv.ParseInt(r.URL.Query().Get("objectId"), 10, 64)
	objectClass := r.URL.Query().Get("objectClass")
	if objectID == 0 || objectClass == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing objectId or objectClass",
		})
		return
	}

	hint := upload.RecordHint{ObjectID: objectID, ObjectClass: objectClass}
	files, err := h.Uploads.TrackExisting(r.Context(), actor, hint)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Files retrieved successfully",
		Data: map[string]any{
			"files": lo.Map(files, func(f models.File, _ int) map[string]any {
				return map[string]any{
					"source": f.ID,
					"name":   f.Name,
					"size":   f.Size,
					"type":   f.ContentType,
				}
			}),
		},
	})
}

// POST /api/v1/admin/sweep
// Sweep godoc
// @Summary Prune stale temporary uploads
// @Description Deletes temporary files older than the retention threshold, capped at the limit. Dry-run unless delete=1; the response always lists the affected ids.
// @Tags Admin
// @Produce json
// @Param delete query bool false "Actually delete (default dry-run)"
// @Param limit query int false "Row cap"
// @Success 200 {object} utils.Payload
// @Router /api/v1/admin/sweep [post]
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	doDelete := r.URL.Query().Get("delete") == "1"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	swept, err := h.Uploads.Sweep(r.Context(), doDelete, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Sweep complete",
		Data: map[string]any{
			"deleted": doDelete,
			"fileIds": lo.Map(swept, func(f models.File, _ int) uint { return f.ID }),
		},
	})
}
