package handlers

import (
	"net/http"
	"strconv"

	"github.com/rohits-web03/dropkeep/internal/utils"
)

// Chunked upload protocol headers.
const (
	offsetHeader = "Upload-Offset"
	lengthHeader = "Upload-Length"
	nameHeader   = "Upload-Name"
)

// POST|HEAD|PATCH /api/v1/files/chunk
// Chunk godoc
// @Summary Chunked upload protocol endpoint
// @Description POST opens a transfer and returns its id. HEAD with ?patch=<id> reports the next expected chunk index in the Upload-Offset header. PATCH with ?patch=<id> stores one chunk; the Upload-Offset header carries the chunk sequence index, Upload-Length the declared total byte size and Upload-Name the filename. Chunks may arrive in any order; the transfer completes once all declared bytes are present.
// @Tags Files
// @Accept octet-stream
// @Produce plain
// @Param patch query int false "Transfer id (HEAD and PATCH)"
// @Param X-SecurityID header string true "Session security token"
// @Success 200 {string} string "Transfer id (POST) or next offset (HEAD)"
// @Success 204 {string} string "Chunk stored (PATCH)"
// @Failure 400 {object} utils.Payload "Protocol or size error"
// @Router /api/v1/files/chunk [post]
func (h *Handler) Chunk(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.chunkInit(w, r)
	case http.MethodHead:
		h.chunkOffset(w, r)
	case http.MethodPatch:
		h.chunkWrite(w, r)
	default:
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
	}
}

// chunkInit creates the temporary file whose id correlates every request of
// the transfer.
func (h *Handler) chunkInit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	f, err := h.Uploads.StartChunk(r.Context(), actor, recordHint(r))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.PlainResponse(w, http.StatusOK, strconv.FormatUint(uint64(f.ID), 10))
}

// chunkOffset lets a resuming client discover which chunk index to send
// next. No side effects.
func (h *Handler) chunkOffset(w http.ResponseWriter, r *http.Request) {
	id, ok := transferID(w, r)
	if !ok {
		return
	}
	next, err := h.Uploads.ChunkOffset(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(offsetHeader, strconv.Itoa(next))
	// net/http drops HEAD bodies; the header is the authoritative carrier.
	utils.PlainResponse(w, http.StatusOK, strconv.Itoa(next))
}

func (h *Handler) chunkWrite(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorOr401(w, r); !ok {
		return
	}
	id, ok := transferID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.Header.Get(offsetHeader))
	if err != nil || index < 0 {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid Upload-Offset header",
		})
		return
	}
	length, err := strconv.ParseInt(r.Header.Get(lengthHeader), 10, 64)
	if err != nil || length <= 0 {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid Upload-Length header",
		})
		return
	}
	name := r.Header.Get(nameHeader)
	if name == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing Upload-Name header",
		})
		return
	}

	if _, err := h.Uploads.WriteChunk(r.Context(), id, index, length, name, r.Body); err != nil {
		writeError(w, err)
		return
	}

	// 204 whether or not this chunk completed the file.
	w.WriteHeader(http.StatusNoContent)
}

func transferID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := utils.ParseFileID(r.URL.Query().Get("patch"))
	if !ok {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing or invalid transfer id",
		})
		return 0, false
	}
	return id, true
}
