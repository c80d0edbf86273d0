// Package api exposes the inference and command surface over HTTP: favorite
// colors, guessed profiles and scenes, and turn-on/turn-off/apply commands.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/catalog"
	"github.com/lightctl/sceneryd/internal/entity"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/match"
	"github.com/lightctl/sceneryd/internal/scene"
	"github.com/lightctl/sceneryd/internal/storage"
)

// Commander issues the service commands the API translates requests into.
type Commander interface {
	TurnOn(entityID, profile string, params map[string]any) error
	TurnOff(entityID string) error
	ApplyScene(sc *scene.Scene) error
}

// StateSource provides current entity state snapshots.
type StateSource interface {
	State(entityID string) *entity.State
	Snapshot(entityIDs []string) map[string]*entity.State
}

// Server is the HTTP API server.
type Server struct {
	addr       string
	catalog    *catalog.Catalog
	options    *storage.OptionsStore
	states     StateSource
	commander  Commander
	httpServer *http.Server
}

// NewServer creates an API server. It does not listen until Run is called.
func NewServer(host string, port int, c *catalog.Catalog, options *storage.OptionsStore, states StateSource, commander Commander) *Server {
	return &Server{
		addr:      fmt.Sprintf("%s:%d", host, port),
		catalog:   c,
		options:   options,
		states:    states,
		commander: commander,
	}
}

// Run starts the API server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.router(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lights", s.handleListLights)
		r.Route("/lights/{entityID}", func(r chi.Router) {
			r.Get("/profile", s.handleGuessProfile)
			r.Get("/favorite-colors", s.handleGetFavoriteColors)
			r.Put("/favorite-colors", s.handlePutFavoriteColors)
			r.Post("/turn-on", s.handleTurnOn)
			r.Post("/turn-off", s.handleTurnOff)
		})
		r.Get("/scene-groups", s.handleListSceneGroups)
		r.Route("/scene-groups/{group}", func(r chi.Router) {
			r.Get("/scene", s.handleGuessScene)
			r.Post("/scenes/{scene}/apply", s.handleApplyScene)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type lightSummary struct {
	EntityID string   `json:"entity_id"`
	Profiles []string `json:"profiles"`
}

func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	lights := make([]lightSummary, 0)
	for _, entityID := range s.catalog.LightEntityIDs() {
		summary := lightSummary{EntityID: entityID, Profiles: []string{}}
		for _, profile := range s.catalog.ProfilesFor(entityID) {
			summary.Profiles = append(summary.Profiles, profile.Name)
		}
		lights = append(lights, summary)
	}
	writeJSON(w, http.StatusOK, lights)
}

type guessedProfile struct {
	EntityID  string `json:"entity_id"`
	Profile   string `json:"profile"`
	Available bool   `json:"available"`
}

func (s *Server) handleGuessProfile(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	lightConfig := s.catalog.LightConfig(entityID)
	if lightConfig == nil {
		writeError(w, http.StatusNotFound, "unknown light entity")
		return
	}

	result := guessedProfile{EntityID: entityID}
	state := s.states.State(entityID)
	if state.Retrievable() && entity.Domain(state.EntityID) == entity.LightDomain {
		result.Available = true
		if state.State == entity.StateOn {
			if profile := match.GuessProfile(state.Attributes, lightConfig.Profiles, nil); profile != nil {
				result.Profile = profile.Name
			}
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetFavoriteColors(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	lightConfig := s.catalog.LightConfig(entityID)
	if lightConfig == nil {
		writeError(w, http.StatusNotFound, "unknown light entity")
		return
	}

	colors, err := s.options.FavoriteColors(entityID)
	if err != nil {
		log.Error().Err(err).Str("entity_id", entityID).Msg("Failed to read favorite colors")
		writeError(w, http.StatusInternalServerError, "failed to read favorite colors")
		return
	}
	if colors == nil {
		colors = light.UniqueColors(append(lightConfig.FavoriteColorsFromProfiles(), lightConfig.FavoriteColors...))
	}
	writeJSON(w, http.StatusOK, colors)
}

func (s *Server) handlePutFavoriteColors(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	if s.catalog.LightConfig(entityID) == nil {
		writeError(w, http.StatusNotFound, "unknown light entity")
		return
	}

	var body []map[string]any
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON list of colors")
			return
		}
	}

	// A null or absent list removes the stored key, so the configured
	// defaults apply again. An explicit empty list stays an empty list.
	var colors []light.Color
	if body != nil {
		colors = make([]light.Color, 0, len(body))
		for i, attrs := range body {
			color := light.ExtractColor(attrs)
			if !light.IsFavoriteColor(color) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("color %d is not a valid favorite color", i))
				return
			}
			colors = append(colors, color)
		}
		colors = light.UniqueColors(colors)
	}

	if err := s.options.SetFavoriteColors(entityID, colors); err != nil {
		log.Error().Err(err).Str("entity_id", entityID).Msg("Failed to store favorite colors")
		writeError(w, http.StatusInternalServerError, "failed to store favorite colors")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type turnOnRequest struct {
	Profile string         `json:"profile"`
	Params  map[string]any `json:"params"`
}

func (s *Server) handleTurnOn(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	if s.catalog.LightConfig(entityID) == nil {
		writeError(w, http.StatusNotFound, "unknown light entity")
		return
	}

	var req turnOnRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Profile != "" && s.catalog.Profile(req.Profile) == nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown profile %q", req.Profile))
		return
	}

	if err := s.commander.TurnOn(entityID, req.Profile, req.Params); err != nil {
		log.Error().Err(err).Str("entity_id", entityID).Msg("Turn-on failed")
		writeError(w, http.StatusBadGateway, "failed to dispatch command")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

func (s *Server) handleTurnOff(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	if s.catalog.LightConfig(entityID) == nil {
		writeError(w, http.StatusNotFound, "unknown light entity")
		return
	}
	if err := s.commander.TurnOff(entityID); err != nil {
		log.Error().Err(err).Str("entity_id", entityID).Msg("Turn-off failed")
		writeError(w, http.StatusBadGateway, "failed to dispatch command")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

type sceneGroupSummary struct {
	Name   string   `json:"name"`
	Scenes []string `json:"scenes"`
}

func (s *Server) handleListSceneGroups(w http.ResponseWriter, r *http.Request) {
	groups := make([]sceneGroupSummary, 0)
	for _, group := range s.catalog.SceneGroups() {
		summary := sceneGroupSummary{Name: group.Name, Scenes: []string{}}
		for _, sc := range group.Scenes {
			summary.Scenes = append(summary.Scenes, sc.Name)
		}
		groups = append(groups, summary)
	}
	writeJSON(w, http.StatusOK, groups)
}

type guessedScene struct {
	Group     string `json:"group"`
	Scene     string `json:"scene"`
	Available bool   `json:"available"`
}

func (s *Server) handleGuessScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "group")
	group := s.catalog.SceneGroup(name)
	if group == nil {
		writeError(w, http.StatusNotFound, "unknown scene group")
		return
	}

	result := guessedScene{Group: name}
	states := s.states.Snapshot(group.Entities)
	if len(states) > 0 {
		result.Available = true
		if sc := match.GuessScene(states, group.Scenes, s.catalog.ProfilesFor, nil); sc != nil {
			result.Scene = sc.Name
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleApplyScene(w http.ResponseWriter, r *http.Request) {
	group := s.catalog.SceneGroup(chi.URLParam(r, "group"))
	if group == nil {
		writeError(w, http.StatusNotFound, "unknown scene group")
		return
	}
	sc := group.Scene(chi.URLParam(r, "scene"))
	if sc == nil {
		writeError(w, http.StatusNotFound, "unknown scene")
		return
	}

	if err := s.commander.ApplyScene(sc); err != nil {
		log.Error().Err(err).Str("scene", sc.Name).Msg("Scene apply failed")
		writeError(w, http.StatusBadGateway, "failed to dispatch commands")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("API request")
	})
}
