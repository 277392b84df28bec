package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voyagen/livecatalog/internal/cache"
	"github.com/voyagen/livecatalog/internal/catalog"
	"github.com/voyagen/livecatalog/internal/models"
)

// adminRequest is the body of POST /api/admin/live. Which fields are read
// depends on Action.
type adminRequest struct {
	Action string   `json:"action"`
	Key    string   `json:"key"`
	Name   *string  `json:"name"`
	URL    *string  `json:"url"`
	UA     *string  `json:"ua"`
	EPG    *string  `json:"epg"`
	Keys   []string `json:"keys"`
	Async  bool     `json:"async"`
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	sources, err := s.Catalog.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if sources == nil {
		sources = []models.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleAdminAction(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, fmt.Errorf("%w: invalid JSON: %v", catalog.ErrValidation, err))
		return
	}
	ctx := r.Context()

	switch req.Action {
	case "add":
		src, err := s.Catalog.Add(ctx, catalog.NewSource{
			Key:       req.Key,
			Name:      deref(req.Name),
			URL:       deref(req.URL),
			UserAgent: deref(req.UA),
			EPGURL:    deref(req.EPG),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, src)

	case "edit":
		src, err := s.Catalog.Edit(ctx, req.Key, catalog.SourceUpdate{
			Name:      req.Name,
			URL:       req.URL,
			UserAgent: req.UA,
			EPGURL:    req.EPG,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, src)

	case "delete":
		if err := s.Catalog.Delete(ctx, req.Key); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Key})

	case "toggle":
		src, err := s.Catalog.Toggle(ctx, req.Key)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, src)

	case "refresh":
		s.refresh(w, r, req)

	case "reorder":
		sources, err := s.Catalog.Reorder(ctx, req.Keys)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sources)

	default:
		writeErr(w, fmt.Errorf("%w: unknown action %q", catalog.ErrValidation, req.Action))
	}
}

// refresh recounts one source, or every source when no key is given.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request, req adminRequest) {
	ctx := r.Context()

	// Make sure the catalog is seeded before the refresh reads it.
	if _, err := s.Catalog.List(ctx); err != nil {
		writeErr(w, err)
		return
	}

	if req.Async && s.Queue != nil {
		job := cache.RefreshJob{SourceKey: req.Key, RequestedAt: time.Now()}
		if err := cache.Enqueue(ctx, s.Queue, cache.DefaultQueue, job); err != nil {
			writeErr(w, fmt.Errorf("enqueue refresh: %w", err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true, "key": req.Key})
		return
	}

	if req.Key == "" {
		results, err := s.Live.RefreshAll(ctx)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
		return
	}

	src, err := s.Live.Refresh(ctx, req.Key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
