package domain

import (
	"fmt"
	"time"
)

// Kind separates the job and task queues. Both share one record layout.
type Kind string

const (
	KindJob  Kind = "job"
	KindTask Kind = "task"
)

func (k Kind) Valid() bool {
	return k == KindJob || k == KindTask
}

// Label is the capitalised kind used in log messages and String output.
func (k Kind) Label() string {
	switch k {
	case KindJob:
		return "Job"
	case KindTask:
		return "Task"
	}
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// OwnerRef points at the entity that made a work item.
type OwnerRef struct {
	Type string `json:"owner_type"`
	ID   int64  `json:"owner_id"`
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%d", o.Type, o.ID)
}

func (o OwnerRef) IsZero() bool {
	return o.Type == "" && o.ID == 0
}

type WorkItem struct {
	ID           string       `json:"id"`
	Kind         Kind         `json:"kind"`
	Created      time.Time    `json:"created"`
	Modified     time.Time    `json:"modified"`
	Owner        OwnerRef     `json:"owner"`
	HandlerID    *int         `json:"handler_id"`
	IsEnabled    bool         `json:"is_enabled"`
	Status       Status       `json:"status"`
	ExtraStatus  *ExtraStatus `json:"extra_status"`
	ErrorMessage string       `json:"error_message"`
}

// NewWorkItem returns an unsaved item with the column defaults applied.
func NewWorkItem(kind Kind, owner OwnerRef, handlerID *int, status Status) WorkItem {
	return WorkItem{
		Kind:      kind,
		Owner:     owner,
		HandlerID: CopyHandlerID(handlerID),
		IsEnabled: true,
		Status:    status,
	}
}

func (w WorkItem) String() string {
	return fmt.Sprintf("%s - %s", w.Kind.Label(), w.Created.Format("2006-01-02 15:04:05.000000-07:00"))
}

// HandlerLabel renders the handler id the way name resolution falls back to it.
func HandlerLabel(id *int) string {
	if id == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *id)
}

func HandlerIDOf(id int) *int {
	return &id
}

func CopyHandlerID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Owner is implemented by any entity that can make work items.
type Owner interface {
	OwnerRef() OwnerRef
}

// SweepResult summarises one sweep pass.
type SweepResult struct {
	Kind     Kind `json:"kind"`
	Selected int  `json:"selected"`
	Done     int  `json:"done"`
	Failed   int  `json:"failed"`
}
