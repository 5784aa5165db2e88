package domain

import "slices"

// Field names a persisted column for partial saves.
type Field string

const (
	FieldStatus       Field = "status"
	FieldErrorMessage Field = "error_message"
	FieldIsEnabled    Field = "is_enabled"
	FieldExtraStatus  Field = "extra_status"
	FieldHandlerID    Field = "handler_id"
)

func (f Field) Valid() bool {
	switch f {
	case FieldStatus, FieldErrorMessage, FieldIsEnabled, FieldExtraStatus, FieldHandlerID:
		return true
	}
	return false
}

// Filter selects work items. Unset members match everything; Statuses is an
// IN set. Every store implementation must agree with Match.
type Filter struct {
	ID        string
	Kind      Kind
	Owner     *OwnerRef
	HandlerID *int
	// HandlerIDNull matches only items without a handler id. It is ignored
	// when HandlerID is set.
	HandlerIDNull bool
	Statuses      []Status
	IsEnabled     *bool
	ExtraStatus   *ExtraStatus
}

// ForHandler constrains f to exactly handlerID, where nil means no handler.
func (f Filter) ForHandler(handlerID *int) Filter {
	f.HandlerID = CopyHandlerID(handlerID)
	f.HandlerIDNull = handlerID == nil
	return f
}

func (f Filter) Match(w WorkItem) bool {
	if f.ID != "" && w.ID != f.ID {
		return false
	}
	if f.Kind != "" && w.Kind != f.Kind {
		return false
	}
	if f.Owner != nil && w.Owner != *f.Owner {
		return false
	}
	if f.HandlerID != nil && (w.HandlerID == nil || *w.HandlerID != *f.HandlerID) {
		return false
	}
	if f.HandlerID == nil && f.HandlerIDNull && w.HandlerID != nil {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, w.Status) {
		return false
	}
	if f.IsEnabled != nil && w.IsEnabled != *f.IsEnabled {
		return false
	}
	if f.ExtraStatus != nil && (w.ExtraStatus == nil || *w.ExtraStatus != *f.ExtraStatus) {
		return false
	}
	return true
}

// DueFilter is what a sweep pass reads for the given kind.
func DueFilter(kind Kind) Filter {
	enabled := true
	return Filter{
		Kind:      kind,
		IsEnabled: &enabled,
		Statuses:  []Status{StatusScheduled},
	}
}
