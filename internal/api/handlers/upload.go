package handlers

import (
	"net/http"
	"strconv"

	"github.com/rohits-web03/dropkeep/internal/utils"
)

// POST /api/v1/files/upload
// Upload godoc
// @Summary Upload a single file
// @Description Single-shot upload. The file arrives as a multipart form field named after the upload field; the response body is the new temporary file id in plaintext. The client keeps the id in a hidden input and submits it with the host form.
// @Tags Files
// @Accept multipart/form-data
// @Produce plain
// @Param X-SecurityID header string true "Session security token"
// @Param X-RecordID header int false "Record id hint"
// @Param X-RecordClassName header string false "Record class hint"
// @Success 200 {string} string "New file id"
// @Failure 400 {object} utils.Payload "Validation or protocol error"
// @Router /api/v1/files/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	const maxMemory = 32 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file upload form",
		})
		return
	}

	src, hdr, err := r.FormFile(h.Uploads.Field())
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "No file",
		})
		return
	}
	defer src.Close()

	f, err := h.Uploads.Upload(r.Context(), actor, hdr.Filename, hdr.Size, src, recordHint(r))
	if err != nil {
		writeError(w, err)
		return
	}

	utils.PlainResponse(w, http.StatusOK, strconv.FormatUint(uint64(f.ID), 10))
}
