// Package handler exposes the reader core over HTTP. JSON is used for
// listings; page images travel in a compact binary frame so the front end
// can blit them without re-parsing.
package handler

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Rookro/RookReader/container"
	"github.com/Rookro/RookReader/internal/app"
	"github.com/Rookro/RookReader/internal/errutil"
	"github.com/Rookro/RookReader/internal/history"
)

// Handler routes the reader API:
//
//	POST   /api/container/open?path=...   open a container, returns entries
//	GET    /api/container/image?entry=... full image, binary frame
//	GET    /api/container/preview?entry=  thumbnail frame; empty when cached
//	GET    /api/dir?path=...              browsable directory listing
//	GET    /api/history                   reading history, newest first
//	GET    /api/history/latest            most recent entry
//	POST   /api/history                   upsert {path, type, pageIndex}
//	DELETE /api/history/{id}              remove one entry
//	DELETE /api/history                   clear history
//
// The image frame is [width u32 BE][height u32 BE][encoded bytes].
type Handler struct {
	state   *app.State
	history history.Repository
}

// New builds the Handler. history may be nil, which disables the history
// endpoints.
func New(state *app.State, hist history.Repository) *Handler {
	return &Handler{state: state, history: hist}
}

// Mux returns the route table for the handler.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/container/open", h.openContainer)
	mux.HandleFunc("GET /api/container/image", h.getImage)
	mux.HandleFunc("GET /api/container/preview", h.getPreview)
	mux.HandleFunc("GET /api/dir", h.listDir)
	if h.history != nil {
		mux.HandleFunc("GET /api/history", h.listHistory)
		mux.HandleFunc("GET /api/history/latest", h.latestHistory)
		mux.HandleFunc("POST /api/history", h.upsertHistory)
		mux.HandleFunc("DELETE /api/history/{id}", h.deleteHistory)
		mux.HandleFunc("DELETE /api/history", h.clearHistory)
	}
	return mux
}

func (h *Handler) openContainer(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "missing path parameter", http.StatusBadRequest)
		return
	}

	result, err := h.state.Open(path)
	if err != nil {
		slog.Error("Failed to open container", "path", path, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, container.ErrUnsupportedContainer) {
			status = http.StatusBadRequest
		} else if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	if h.history != nil {
		itemType := history.ItemFile
		if result.IsDirectory {
			itemType = history.ItemDirectory
		}
		if err := h.history.Upsert(r.Context(), path, itemType, nil); err != nil {
			// History is best-effort; the container is already open.
			slog.Warn("Failed to record history", "path", path, "error", err)
		}
	}

	slog.Info("Opened container", "path", path, "entries", len(result.Entries))
	h.writeJSON(w, result)
}

func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	entry := r.URL.Query().Get("entry")
	if entry == "" {
		http.Error(w, "missing entry parameter", http.StatusBadRequest)
		return
	}

	ldr, err := h.state.Loader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	img, err := ldr.Image(entry)
	if err != nil {
		slog.Error("Failed to load image", "entry", entry, "error", err)
		if errors.Is(err, container.ErrEntryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeImage(w, img)
}

func (h *Handler) getPreview(w http.ResponseWriter, r *http.Request) {
	entry := r.URL.Query().Get("entry")
	if entry == "" {
		http.Error(w, "missing entry parameter", http.StatusBadRequest)
		return
	}

	if !h.state.Settings().EnablePreview {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ldr, err := h.state.Loader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	img, err := ldr.PreviewImage(entry)
	if err != nil {
		slog.Error("Failed to load preview", "entry", entry, "error", err)
		if errors.Is(err, container.ErrEntryNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if img == nil {
		// Full image already cached; the client should fetch that instead.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeImage(w, img)
}

// DirEntry is one row of a directory listing. Only directories and openable
// container files are listed.
type DirEntry struct {
	Name         string `json:"name"`
	IsDirectory  bool   `json:"isDirectory"`
	LastModified string `json:"lastModified"`
}

func (h *Handler) listDir(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "missing path parameter", http.StatusBadRequest)
		return
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	entries := make([]DirEntry, 0, len(dirEntries))
	for _, e := range dirEntries {
		if !e.IsDir() && !container.IsSupportedFormat(e.Name()) {
			continue
		}

		var lastModified string
		if info, err := e.Info(); err == nil {
			lastModified = info.ModTime().Format(time.RFC3339)
		}
		entries = append(entries, DirEntry{
			Name:         e.Name(),
			IsDirectory:  e.IsDir(),
			LastModified: lastModified,
		})
	}

	h.writeJSON(w, entries)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.All(r.Context())
	if err != nil {
		slog.Error("Failed to list history", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	h.writeJSON(w, entries)
}

func (h *Handler) latestHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := h.history.Latest(r.Context())
	if err != nil {
		slog.Error("Failed to fetch latest history entry", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "history is empty", http.StatusNotFound)
		return
	}
	h.writeJSON(w, entry)
}

type upsertRequest struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	PageIndex *int64 `json:"pageIndex"`
}

func (h *Handler) upsertHistory(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}

	itemType := history.ItemType(req.Type)
	if itemType != history.ItemFile && itemType != history.ItemDirectory {
		http.Error(w, fmt.Sprintf("invalid type: %q", req.Type), http.StatusBadRequest)
		return
	}

	if err := h.history.Upsert(r.Context(), req.Path, itemType, req.PageIndex); err != nil {
		slog.Error("Failed to upsert history", "path", req.Path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid history id", http.StatusBadRequest)
		return
	}

	if err := h.history.Delete(r.Context(), id); err != nil {
		slog.Error("Failed to delete history entry", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.DeleteAll(r.Context()); err != nil {
		slog.Error("Failed to clear history", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeImage serializes an image as [width u32 BE][height u32 BE][bytes].
func (h *Handler) writeImage(w http.ResponseWriter, img *container.Image) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(8+len(img.Data)))

	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], img.Width)
	binary.BigEndian.PutUint32(header[4:8], img.Height)

	if _, err := w.Write(header[:]); err != nil {
		errutil.LogMsg(err, "Failed to write image header")
		return
	}
	_, err := w.Write(img.Data)
	errutil.LogMsg(err, "Failed to write image body")
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	errutil.LogMsg(json.NewEncoder(w).Encode(v), "Failed to encode response")
}
