// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/airrkit/airrspec/internal/audit"
	"github.com/airrkit/airrspec/internal/library"
	"github.com/airrkit/airrspec/internal/log"
)

// LibraryListResponse is the paged item listing returned by the library
// endpoints.
type LibraryListResponse struct {
	Items  []library.Item `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// RootsResponse wraps the configured library roots.
type RootsResponse struct {
	Roots []library.Root `json:"roots"`
}

// RescanResponse reports the outcome of a manual rescan.
type RescanResponse struct {
	Status string `json:"status"`
	RootID string `json:"rootId"`
}

// handleLibraryList implements GET /v1/library.
func (s *Server) handleLibraryList(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePagination(r)

	items, total, err := s.library.ListItems(r.Context(), limit, offset)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api.library")
		logger.Error().
			Err(err).Msg("listing library items failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	if items == nil {
		items = []library.Item{}
	}

	writeJSON(w, r, http.StatusOK, LibraryListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// handleLibraryItem implements GET /v1/library/{digest}.
func (s *Server) handleLibraryItem(w http.ResponseWriter, r *http.Request) {
	digest := chi.URLParam(r, "digest")

	item, err := s.library.GetItemByDigest(r.Context(), digest)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api.library")
		logger.Error().
			Err(err).Str(log.FieldChecksum, digest).Msg("library item lookup failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	if item == nil {
		RespondError(w, r, http.StatusNotFound, ErrItemNotFound)
		return
	}

	writeJSON(w, r, http.StatusOK, item)
}

// handleLibraryRoots implements GET /v1/library/roots.
func (s *Server) handleLibraryRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := s.library.GetRoots(r.Context())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api.library")
		logger.Error().
			Err(err).Msg("listing library roots failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	if roots == nil {
		roots = []library.Root{}
	}

	writeJSON(w, r, http.StatusOK, RootsResponse{Roots: roots})
}

// handleLibraryRescan implements POST /v1/library/roots/{rootID}/rescan.
// The scan runs synchronously; concurrent requests for the same root get a
// 503 with Retry-After instead of piling up.
func (s *Server) handleLibraryRescan(w http.ResponseWriter, r *http.Request) {
	rootID := chi.URLParam(r, "rootID")
	logger := log.WithComponentFromContext(r.Context(), "api.library")

	ctx := audit.WithActor(r.Context(), "api:"+r.RemoteAddr)
	err := s.library.TriggerScan(ctx, rootID)
	switch {
	case errors.Is(err, library.ErrRootNotFound):
		RespondError(w, r, http.StatusNotFound, ErrLibraryRootNotFound)
	case errors.Is(err, library.ErrScanRunning):
		w.Header().Set("Retry-After", "10")
		RespondError(w, r, http.StatusServiceUnavailable, ErrLibraryScanRunning)
	case err != nil:
		logger.Error().Err(err).Str(log.FieldRootID, rootID).Msg("library rescan failed")
		RespondError(w, r, http.StatusInternalServerError, ErrLibraryScanFailed, err.Error())
	default:
		logger.Info().
			Str(log.FieldEvent, "library.rescan").
			Str(log.FieldRootID, rootID).
			Msg("library rescan completed")
		writeJSON(w, r, http.StatusOK, RescanResponse{Status: "completed", RootID: rootID})
	}
}

// handleLibraryRootItems implements GET /v1/library/roots/{rootID}/items.
// A never-scanned root is scanned on first request, so the listing is never
// silently empty.
func (s *Server) handleLibraryRootItems(w http.ResponseWriter, r *http.Request) {
	rootID := chi.URLParam(r, "rootID")
	offset, limit := parsePagination(r)

	items, total, err := s.library.GetRootItems(r.Context(), rootID, limit, offset)
	switch {
	case errors.Is(err, library.ErrRootNotFound):
		RespondError(w, r, http.StatusNotFound, ErrLibraryRootNotFound)
		return
	case errors.Is(err, library.ErrScanRunning):
		w.Header().Set("Retry-After", "10")
		RespondError(w, r, http.StatusServiceUnavailable, ErrLibraryScanRunning)
		return
	case err != nil:
		logger := log.WithComponentFromContext(r.Context(), "api.library")
		logger.Error().
			Err(err).Str(log.FieldRootID, rootID).Msg("listing root items failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	if items == nil {
		items = []library.Item{}
	}

	writeJSON(w, r, http.StatusOK, LibraryListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// parsePagination extracts offset and limit from query parameters.
// Defaults: offset=0, limit=100. Max limit: 1000.
func parsePagination(r *http.Request) (offset, limit int) {
	offset = 0
	limit = 100

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
			if limit > 1000 {
				limit = 1000
			}
		}
	}
	return offset, limit
}
