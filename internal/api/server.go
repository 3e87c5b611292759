// Package api serves family generation and saved trees over HTTP.
// GET endpoints are public. POST endpoints require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/kinforge/internal/entropy"
	"github.com/talgya/kinforge/internal/family"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/persistence"
)

// Server serves generated families over HTTP.
type Server struct {
	Template  string
	Blueprint family.Blueprint
	Names     *names.Library
	Settings  family.Settings
	DB        *persistence.DB // nil disables saving and the saved-family endpoints
	Port      int
	AdminKey  string // Bearer token for POST endpoints. Empty = POST disabled.
	MaxDepth  int
	Origins   []string

	// Generation shares the name library cache.
	genMu sync.Mutex
	srv   *http.Server
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	generateLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/generate", RateLimitMiddleware(generateLimiter, s.handleGenerate))
	mux.HandleFunc("GET /api/v1/families", s.withDB(s.handleFamilies))
	mux.HandleFunc("GET /api/v1/families/{id}", s.withDB(s.handleFamilyDetail))
	mux.HandleFunc("POST /api/v1/families", s.adminOnly(s.withDB(s.handleSaveFamily)))

	return corsMiddleware(s.Origins, mux)
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "db", s.DB != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no KINFORGE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) withDB(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB == nil {
			http.Error(w, "no database configured", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":      "kinforge",
		"template":  s.Template,
		"genders":   s.Blueprint.Genders.Names(),
		"max_depth": s.MaxDepth,
		"saving":    s.DB != nil,
	}
	writeJSON(w, status)
}

type generateParams struct {
	seed          int64
	depth         int
	immediateOnly bool
}

// parseGenerateParams reads seed, depth and immediate from the query. A missing seed
// draws a fresh one.
func (s *Server) parseGenerateParams(r *http.Request) (p generateParams, err error) {
	q := r.URL.Query()
	p.seed = entropy.CryptoSeed()
	if v := q.Get("seed"); v != "" {
		if p.seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return p, fmt.Errorf("seed: %w", err)
		}
	}
	p.depth = 1
	if v := q.Get("depth"); v != "" {
		if p.depth, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("depth: %w", err)
		}
	}
	if p.depth < 0 || p.depth > s.MaxDepth {
		return p, fmt.Errorf("depth must be within 0..%d", s.MaxDepth)
	}
	if v := q.Get("immediate"); v != "" {
		if p.immediateOnly, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("immediate: %w", err)
		}
	}
	return p, nil
}

func (s *Server) generate(p generateParams) (*kin.Graph, kin.ID, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	gen := family.New(s.Blueprint, s.Names, entropy.New(p.seed), s.Settings)
	subject, err := gen.NewSubject()
	if err != nil {
		return nil, kin.NoID, err
	}
	if _, err := gen.AddFamily(subject.ID, p.depth, p.immediateOnly); err != nil {
		return nil, kin.NoID, err
	}
	return gen.Graph(), subject.ID, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseGenerateParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seed := p.seed
	g, subject, err := s.generate(p)
	if err != nil {
		slog.Error("generate failed", "seed", seed, "error", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, familyView{Seed: seed, Subject: int(subject), Characters: characterViews(g), Links: linkViews(g)})
}

func (s *Server) handleSaveFamily(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseGenerateParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seed := p.seed
	g, subject, err := s.generate(p)
	if err != nil {
		slog.Error("generate failed", "seed", seed, "error", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}
	id, err := s.DB.SaveFamily("", g, persistence.Meta{Seed: seed, Template: s.Template, Subject: subject})
	if err != nil {
		slog.Error("save failed", "seed", seed, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{"id": id, "seed": seed, "characters": g.Len()})
}

func (s *Server) handleFamilies(w http.ResponseWriter, r *http.Request) {
	fams, err := s.DB.Families()
	if err != nil {
		slog.Error("list families failed", "error", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if fams == nil {
		fams = []persistence.Family{}
	}
	writeJSON(w, fams)
}

func (s *Server) handleFamilyDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fam, err := s.DB.Family(id)
	if errors.Is(err, persistence.ErrNoFamily) {
		http.Error(w, "family not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load family failed", "family", id, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	chars, err := s.DB.Characters(id)
	if err != nil {
		slog.Error("load characters failed", "family", id, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	links, err := s.DB.Links(id)
	if err != nil {
		slog.Error("load links failed", "family", id, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}

	view := familyView{ID: fam.ID, Seed: fam.Seed, Subject: fam.SubjectID, Links: []linkView{}}
	for _, c := range chars {
		cv := characterView{
			ID:           c.ID,
			Relationship: c.Relationship,
			Name:         c.Name().Full(),
			Gender:       c.Gender,
			Orientation:  c.Orientation,
			Races:        c.Races(),
			Traits:       c.Traits(),
		}
		if c.ParentID.Valid {
			p := int(c.ParentID.Int64)
			cv.Parent = &p
		}
		if c.AgeYears.Valid {
			a := int(c.AgeYears.Int64)
			cv.Age = &a
		}
		view.Characters = append(view.Characters, cv)
	}
	for _, l := range links {
		view.Links = append(view.Links, linkView{From: l.From, To: l.To, Relationship: l.Relationship})
	}
	writeJSON(w, view)
}

type familyView struct {
	ID         string          `json:"id,omitempty"`
	Seed       int64           `json:"seed"`
	Subject    int             `json:"subject"`
	Characters []characterView `json:"characters"`
	Links      []linkView      `json:"links"`
}

type characterView struct {
	ID           int      `json:"id"`
	Parent       *int     `json:"parent,omitempty"`
	Relationship string   `json:"relationship,omitempty"`
	Name         string   `json:"name"`
	Age          *int     `json:"age,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	Orientation  string   `json:"orientation,omitempty"`
	Races        []string `json:"races,omitempty"`
	Traits       []string `json:"traits,omitempty"`
}

type linkView struct {
	From         int    `json:"from"`
	To           int    `json:"to"`
	Relationship string `json:"relationship"`
}

func characterViews(g *kin.Graph) []characterView {
	cat := g.Catalog()
	var out []characterView
	for _, c := range g.Characters() {
		cv := characterView{ID: int(c.ID), Name: c.Name.Full(), Races: c.Races(), Traits: c.Traits()}
		if p := c.Parent(); p != kin.NoID {
			pi := int(p)
			cv.Parent = &pi
		}
		if c.Relationship != option.None {
			cv.Relationship = cat.Path(c.Relationship)
		}
		if years, ok := c.Age(); ok {
			cv.Age = &years
		}
		if gi, ok := c.Gender(); ok {
			cv.Gender = gi.Name
		}
		if _, oid := c.Orientation(); oid != option.None {
			cv.Orientation = c.Options.Node(oid).Name
		}
		out = append(out, cv)
	}
	return out
}

func linkViews(g *kin.Graph) []linkView {
	cat := g.Catalog()
	out := []linkView{}
	for _, l := range g.Links() {
		out = append(out, linkView{From: int(l.From), To: int(l.To), Relationship: cat.Path(l.Relationship)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
