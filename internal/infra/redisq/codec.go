package redisq

import (
	"fmt"
	"strconv"
	"time"
	"workq/internal/domain"
)

func itemToMap(w domain.WorkItem, seq int64) map[string]any {
	return map[string]any{
		"id":            w.ID,
		"seq":           seq,
		"kind":          string(w.Kind),
		"created":       w.Created.UTC().Format(time.RFC3339Nano),
		"modified":      w.Modified.UTC().Format(time.RFC3339Nano),
		"owner_type":    w.Owner.Type,
		"owner_id":      w.Owner.ID,
		"handler_id":    encodeOptInt(w.HandlerID),
		"is_enabled":    encodeBool(w.IsEnabled),
		"status":        int(w.Status),
		"extra_status":  encodeExtra(w.ExtraStatus),
		"error_message": w.ErrorMessage,
	}
}

// fieldValue renders one partial-save column.
func fieldValue(w domain.WorkItem, f domain.Field) (any, error) {
	switch f {
	case domain.FieldStatus:
		return int(w.Status), nil
	case domain.FieldErrorMessage:
		return w.ErrorMessage, nil
	case domain.FieldIsEnabled:
		return encodeBool(w.IsEnabled), nil
	case domain.FieldExtraStatus:
		return encodeExtra(w.ExtraStatus), nil
	case domain.FieldHandlerID:
		return encodeOptInt(w.HandlerID), nil
	}
	return nil, fmt.Errorf("unknown field %q", f)
}

func itemFromMap(h map[string]string) (domain.WorkItem, error) {
	var (
		w   domain.WorkItem
		err error
	)
	w.ID = h["id"]
	w.Kind = domain.Kind(h["kind"])
	w.Owner.Type = h["owner_type"]
	w.ErrorMessage = h["error_message"]
	w.IsEnabled = h["is_enabled"] == "1"

	if w.Created, err = time.Parse(time.RFC3339Nano, h["created"]); err != nil {
		return w, fmt.Errorf("item %s created: %w", w.ID, err)
	}
	if w.Modified, err = time.Parse(time.RFC3339Nano, h["modified"]); err != nil {
		return w, fmt.Errorf("item %s modified: %w", w.ID, err)
	}
	if w.Owner.ID, err = strconv.ParseInt(h["owner_id"], 10, 64); err != nil {
		return w, fmt.Errorf("item %s owner_id: %w", w.ID, err)
	}
	status, err := strconv.Atoi(h["status"])
	if err != nil {
		return w, fmt.Errorf("item %s status: %w", w.ID, err)
	}
	w.Status = domain.Status(status)

	if v := h["handler_id"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return w, fmt.Errorf("item %s handler_id: %w", w.ID, err)
		}
		w.HandlerID = &n
	}
	if v := h["extra_status"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return w, fmt.Errorf("item %s extra_status: %w", w.ID, err)
		}
		e := domain.ExtraStatus(n)
		w.ExtraStatus = &e
	}
	return w, nil
}

func encodeOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func encodeExtra(v *domain.ExtraStatus) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
