package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/voyagen/livecatalog/internal/catalog"
	"github.com/voyagen/livecatalog/internal/fetcher"
	"github.com/voyagen/livecatalog/internal/models"
)

type publicSource struct {
	Key          string        `json:"key"`
	Name         string        `json:"name"`
	ChannelCount int           `json:"channelNumber"`
	From         models.Origin `json:"from"`
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.Catalog.ListEnabled(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]publicSource, 0, len(sources))
	for _, src := range sources {
		out = append(out, publicSource{Key: src.Key, Name: src.Name, ChannelCount: src.ChannelCount, From: src.From})
	}
	writeJSON(w, http.StatusOK, out)
}

type sourceRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type channelsResponse struct {
	Source     sourceRef        `json:"source"`
	Channels   []models.Channel `json:"channels"`
	Cached     bool             `json:"cached"`
	UpdateTime time.Time        `json:"updateTime"`
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("source")
	if key == "" {
		writeErr(w, fmt.Errorf("%w: source parameter is required", catalog.ErrValidation))
		return
	}
	res, err := s.Live.ServeChannels(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	channels := res.Channels
	if channels == nil {
		channels = []models.Channel{}
	}
	writeJSON(w, http.StatusOK, channelsResponse{
		Source:     sourceRef{Key: res.Source.Key, Name: res.Source.Name},
		Channels:   channels,
		Cached:     res.FromCache,
		UpdateTime: res.FetchedAt,
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	res, err := s.Live.ServeChannels(r.Context(), r.PathValue("key"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.m3u"`, res.Source.Key))
	if err := fetcher.WriteM3U(w, res.Channels); err != nil {
		log.Printf("playlist[%s]: write: %v", res.Source.Key, err)
	}
}
