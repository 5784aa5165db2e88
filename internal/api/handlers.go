package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"workq/internal/app"
	"workq/internal/domain"
	"workq/internal/owners"
	"workq/internal/ports"
	"workq/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

type handlers struct {
	app *app.App
}

type itemView struct {
	domain.WorkItem
	HandlerName string `json:"handler_name"`
}

type makeReq struct {
	HandlerID *int `json:"handler_id"`
}

type makeResp struct {
	Item    itemView `json:"item"`
	Created bool     `json:"created"`
}

// patchReq carries the fields an operator may edit. extra_status distinguishes
// absent from an explicit null, which clears it.
type patchReq struct {
	IsEnabled   *bool           `json:"is_enabled"`
	ExtraStatus json.RawMessage `json:"extra_status"`
}

type handlerView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (h *handlers) withQueue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		q, err := h.app.Queue(kind)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, q)))
	})
}

func queueFrom(r *http.Request) *usecase.Queue {
	return r.Context().Value(ctxKey{}).(*usecase.Queue)
}

func (h *handlers) view(q *usecase.Queue, w domain.WorkItem) itemView {
	return itemView{WorkItem: w, HandlerName: q.HandlerName(w.Owner.Type, w.HandlerID)}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listItems(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r)
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f.Kind = q.Kind

	items, err := q.Store.FindMany(r.Context(), f)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("list items")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, h.view(q, it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getItem(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r)
	it, ok := h.lookup(w, r, q)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(q, *it))
}

func (h *handlers) patchItem(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r)
	var req patchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	it, ok := h.lookup(w, r, q)
	if !ok {
		return
	}

	var fields []domain.Field
	if req.IsEnabled != nil {
		it.IsEnabled = *req.IsEnabled
		fields = append(fields, domain.FieldIsEnabled)
	}
	if len(req.ExtraStatus) > 0 {
		if string(req.ExtraStatus) == "null" {
			it.ExtraStatus = nil
		} else {
			var e domain.ExtraStatus
			if err := json.Unmarshal(req.ExtraStatus, &e); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			it.ExtraStatus = &e
		}
		fields = append(fields, domain.FieldExtraStatus)
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("nothing to update: only is_enabled and extra_status are editable"))
		return
	}

	if err := q.Store.Save(r.Context(), it, fields...); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	log.Ctx(r.Context()).Info().Str("item_id", it.ID).Interface("fields", fields).Msg("item updated")
	writeJSON(w, http.StatusOK, h.view(q, *it))
}

func (h *handlers) listHandlers(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r)
	entries := q.Handlers.Handlers(chi.URLParam(r, "ownerType"))
	out := make([]handlerView, 0, len(entries))
	for _, e := range entries {
		out = append(out, handlerView{ID: e.ID, Name: q.HandlerName(chi.URLParam(r, "ownerType"), &e.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createItem(w http.ResponseWriter, r *http.Request) {
	h.makeItem(w, r, usecase.Maker.Create)
}

func (h *handlers) scheduleItem(w http.ResponseWriter, r *http.Request) {
	h.makeItem(w, r, usecase.Maker.Schedule)
}

func (h *handlers) makeItem(w http.ResponseWriter, r *http.Request,
	op func(usecase.Maker, context.Context, int) (*domain.WorkItem, bool, error)) {
	q := queueFrom(r)

	ownerID, err := strconv.ParseInt(chi.URLParam(r, "ownerID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("owner id: %w", err))
		return
	}
	var req makeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.HandlerID == nil {
		writeError(w, http.StatusBadRequest, errors.New("handler_id is required"))
		return
	}

	owner, err := h.app.Owners.Resolve(r.Context(), domain.OwnerRef{Type: chi.URLParam(r, "ownerType"), ID: ownerID})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	it, created, err := op(q.Maker(owner), r.Context(), *req.HandlerID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("make work item")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, makeResp{Item: h.view(q, *it), Created: created})
}

func (h *handlers) sweep(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r)
	res, err := h.app.Sweepers[q.Kind].Run(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("sweep pass failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) lookup(w http.ResponseWriter, r *http.Request, q *usecase.Queue) (*domain.WorkItem, bool) {
	it, err := q.Store.FindOne(r.Context(), domain.Filter{ID: chi.URLParam(r, "id"), Kind: q.Kind})
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return it, true
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	var f domain.Filter
	qs := r.URL.Query()

	if v := qs.Get("status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			s, err := domain.ParseStatus(part)
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, s)
		}
	}
	if v := qs.Get("is_enabled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("is_enabled: %w", err)
		}
		f.IsEnabled = &b
	}
	if v := qs.Get("extra_status"); v != "" {
		e, err := domain.ParseExtraStatus(v)
		if err != nil {
			return f, err
		}
		f.ExtraStatus = &e
	}
	if v := qs.Get("handler_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("handler_id: %w", err)
		}
		f.HandlerID = &n
	}
	ownerType, ownerID := qs.Get("owner_type"), qs.Get("owner_id")
	if (ownerType == "") != (ownerID == "") {
		return f, errors.New("owner_type and owner_id go together")
	}
	if ownerType != "" {
		id, err := strconv.ParseInt(ownerID, 10, 64)
		if err != nil {
			return f, fmt.Errorf("owner_id: %w", err)
		}
		f.Owner = &domain.OwnerRef{Type: ownerType, ID: id}
	}
	return f, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, owners.ErrOwnerNotFound),
		errors.Is(err, owners.ErrUnknownOwnerType):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
