package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/objmap/internal/core"
)

// maxBodyBytes caps object request bodies.
const maxBodyBytes = 1 << 20

// ObjectRequest carries member values for create and update. Keys may be
// dotted paths; null clears a member to its null sentinel.
type ObjectRequest struct {
	Members map[string]any `json:"members"`
}

// DeleteResponse reports a removed object.
type DeleteResponse struct {
	Type    string `json:"type"`
	Key     any    `json:"key"`
	Deleted bool   `json:"deleted"`
}

// handleCreateObject creates a new object from the request members and
// saves it. The key is assigned by storage.
func (s *Server) handleCreateObject(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.dir.Manager(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	req, ok := decodeObjectRequest(w, r, mgr)
	if !ok {
		return
	}

	obj := mgr.CreateObject()
	if err := applyMembers(r.Context(), mgr, obj, req.Members); err != nil {
		respondError(w, r, err)
		return
	}
	if err := persist(r.Context(), mgr, func(ctx context.Context) (bool, error) {
		return mgr.SaveObject(ctx, obj)
	}); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderObject(mgr, obj))
}

// handleUpdateObject applies the request members to a stored object and
// saves it.
func (s *Server) handleUpdateObject(w http.ResponseWriter, r *http.Request) {
	mgr, obj, ok := s.loadObject(w, r)
	if !ok {
		return
	}

	req, ok := decodeObjectRequest(w, r, mgr)
	if !ok {
		return
	}

	if err := applyMembers(r.Context(), mgr, obj, req.Members); err != nil {
		respondError(w, r, err)
		return
	}
	if err := persist(r.Context(), mgr, func(ctx context.Context) (bool, error) {
		return mgr.SaveObject(ctx, obj)
	}); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, renderObject(mgr, obj))
}

// handleDeleteObject removes a stored object.
func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	mgr, obj, ok := s.loadObject(w, r)
	if !ok {
		return
	}

	key := renderValue(mgr.PrimaryKeyValue(obj))
	if err := persist(r.Context(), mgr, func(ctx context.Context) (bool, error) {
		return mgr.DeleteObject(ctx, obj)
	}); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Type: mgr.Type(), Key: key, Deleted: true})
}

// decodeObjectRequest reads the body. The key member cannot be set by
// clients. On failure the error response has been written and ok is false.
func decodeObjectRequest(w http.ResponseWriter, r *http.Request, mgr *core.Manager) (ObjectRequest, bool) {
	var req ObjectRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	key := mgr.Metadata().PrimaryKey.Member
	if _, set := req.Members[key]; set {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("member %s is the key and is assigned by storage", key))
		return req, false
	}
	return req, true
}

// applyMembers sets members in name order so that failures are repeatable.
func applyMembers(ctx context.Context, mgr *core.Manager, obj core.Entity, members map[string]any) error {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]any, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, name, members[name])
	}
	return mgr.SetMemberValues(ctx, obj, pairs...)
}

// persist runs a Save or Delete with a sink that captures the failure and
// still forwards it to the request's sink, so the failure is both recorded
// and returned to the client.
func persist(ctx context.Context, mgr *core.Manager, op func(context.Context) (bool, error)) error {
	var failed *core.FailureEvent
	outer := core.FailureSinkFromContext(ctx)
	ctx = core.WithFailureSink(ctx, func(ctx context.Context, ev core.FailureEvent) {
		failed = &ev
		if outer != nil {
			outer(ctx, ev)
		}
	})

	ok, err := op(ctx)
	switch {
	case err != nil:
		return err
	case failed != nil:
		return core.Classify(mgr.Metadata(), failed.Action, failed.Err)
	case !ok:
		return fmt.Errorf("%s was not stored", mgr.Type())
	}
	return nil
}
