package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/objmap/internal/audit"
	"github.com/JonMunkholm/objmap/internal/core"
)

// defaultFailureLimit caps /api/failures when no limit is given.
const defaultFailureLimit = 50

// TypeResponse describes one registered type.
type TypeResponse struct {
	Name       string              `json:"name"`
	Table      string              `json:"table"`
	Key        string              `json:"key"`
	Columns    []string            `json:"columns"`
	References []ReferenceResponse `json:"references,omitempty"`
}

// ReferenceResponse describes one declared reference.
type ReferenceResponse struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Member string `json:"member"`
}

// ObjectResponse is an entity rendered member by member.
type ObjectResponse struct {
	Type    string         `json:"type"`
	Key     any            `json:"key"`
	Members map[string]any `json:"members"`
}

// PathResponse is the value found at a dotted member path.
type PathResponse struct {
	Type  string `json:"type"`
	Key   any    `json:"key"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// CacheClearResponse reports a cache flush.
type CacheClearResponse struct {
	Managers int `json:"managers"`
}

// FailuresResponse lists recent Save and Delete failures.
type FailuresResponse struct {
	Failures []audit.Entry `json:"failures"`
	Total    int           `json:"total"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"types":    len(s.dir.Types()),
		"managers": s.dir.ManagerCount(),
	})
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	names := s.dir.Types()
	types := make([]TypeResponse, 0, len(names))
	for _, name := range names {
		meta, err := s.dir.Describe(name)
		if err != nil {
			respondError(w, r, err)
			return
		}
		types = append(types, describeType(meta))
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	mgr, obj, ok := s.loadObject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, renderObject(mgr, obj))
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	mgr, obj, ok := s.loadObject(w, r)
	if !ok {
		return
	}

	path := chi.URLParam(r, "path")
	value, err := mgr.GetMemberValue(r.Context(), obj, path)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PathResponse{
		Type:  mgr.Type(),
		Key:   mgr.PrimaryKeyValue(obj),
		Path:  path,
		Value: renderValue(value),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.dir.ClearObjectsCache()
	writeJSON(w, http.StatusOK, CacheClearResponse{Managers: s.dir.ManagerCount()})
}

func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultFailureLimit)
	writeJSON(w, http.StatusOK, FailuresResponse{
		Failures: s.recorder.Recent(limit),
		Total:    s.recorder.Len(),
	})
}

// loadObject resolves the {type} and {key} URL parameters. On failure the
// error response has been written and ok is false.
func (s *Server) loadObject(w http.ResponseWriter, r *http.Request) (*core.Manager, core.Entity, bool) {
	mgr, err := s.dir.Manager(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, r, err)
		return nil, nil, false
	}

	obj, err := mgr.GetObject(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondError(w, r, err)
		return nil, nil, false
	}
	return mgr, obj, true
}

func describeType(meta *core.Metadata) TypeResponse {
	t := TypeResponse{
		Name:    meta.Type,
		Table:   meta.Table,
		Key:     meta.PrimaryKey.Column,
		Columns: meta.Columns(),
	}
	for _, ref := range meta.References {
		t.References = append(t.References, ReferenceResponse{
			Name:   ref.Name,
			Type:   ref.Type,
			Member: ref.Member,
		})
	}
	return t
}

// renderObject maps every field to its value; null sentinels become JSON
// null.
func renderObject(mgr *core.Manager, obj core.Entity) ObjectResponse {
	meta := mgr.Metadata()
	members := make(map[string]any, len(meta.Fields))
	for _, f := range meta.Fields {
		members[f.Member] = renderValue(f.Get(obj))
	}
	return ObjectResponse{
		Type:    meta.Type,
		Key:     renderValue(mgr.PrimaryKeyValue(obj)),
		Members: members,
	}
}

func renderValue(v any) any {
	if h, ok := v.(core.Handle); ok && h.Manager() != nil {
		return renderObject(h.Manager(), v)
	}
	if core.IsNull(v) {
		return nil
	}
	return v
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
