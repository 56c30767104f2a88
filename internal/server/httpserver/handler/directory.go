package handler

import (
	"net/http"
)

// handleListSessions handles GET /v1/sessions.
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.dir.ActiveSessions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := SessionListResponse{
		Sessions: make([]SessionResponse, 0, len(sessions)),
		Total:    len(sessions),
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, sessionToResponse(s))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleGetCatalog handles GET /v1/catalogs/{identity}.
func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("identity")

	entries, err := h.dir.Catalog(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := CatalogResponse{
		Identity: id,
		Entries:  make([]EntryResponse, 0, len(entries)),
		Total:    len(entries),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryToResponse(e))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
