package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status values are persisted as small integers; keep the numbering stable.
type Status int

const (
	StatusCreated Status = iota
	StatusScheduled
	StatusStarted
	StatusStopped
	StatusRestarted
	StatusCanceled
	StatusError
	StatusDone
)

var statusNames = [...]string{
	StatusCreated:   "CREATED",
	StatusScheduled: "SCHEDULED",
	StatusStarted:   "STARTED",
	StatusStopped:   "STOPPED",
	StatusRestarted: "RESTARTED",
	StatusCanceled:  "CANCELED",
	StatusError:     "ERROR",
	StatusDone:      "DONE",
}

// SchedulableStatuses are the statuses an item may be in and still be reused
// by Schedule. CANCELED and ERROR items do not block a fresh schedule.
var SchedulableStatuses = []Status{
	StatusCreated,
	StatusScheduled,
	StatusStarted,
	StatusRestarted,
	StatusStopped,
	StatusDone,
}

func (s Status) Valid() bool {
	return s >= StatusCreated && s <= StatusDone
}

func (s Status) String() string {
	if !s.Valid() {
		return strconv.Itoa(int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("status: %w", err)
		}
		raw = strconv.Itoa(n)
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStatus accepts either the label (case-insensitive) or the number.
func ParseStatus(s string) (Status, error) {
	if n, err := strconv.Atoi(s); err == nil {
		st := Status(n)
		if !st.Valid() {
			return 0, fmt.Errorf("unknown status %d", n)
		}
		return st, nil
	}
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range statusNames {
		if name == up {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// ExtraStatus is an operator hint. The sweep never reads it.
type ExtraStatus int

const (
	ExtraStatusToRestart ExtraStatus = iota
	ExtraStatusToCancel
)

func (e ExtraStatus) Valid() bool {
	return e == ExtraStatusToRestart || e == ExtraStatusToCancel
}

func (e ExtraStatus) String() string {
	switch e {
	case ExtraStatusToRestart:
		return "TO_RESTART"
	case ExtraStatusToCancel:
		return "TO_CANCEL"
	}
	return strconv.Itoa(int(e))
}

func (e ExtraStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *ExtraStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("extra status: %w", err)
		}
		raw = strconv.Itoa(n)
	}
	v, err := ParseExtraStatus(raw)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

func ParseExtraStatus(s string) (ExtraStatus, error) {
	if n, err := strconv.Atoi(s); err == nil {
		e := ExtraStatus(n)
		if !e.Valid() {
			return 0, fmt.Errorf("unknown extra status %d", n)
		}
		return e, nil
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TO_RESTART":
		return ExtraStatusToRestart, nil
	case "TO_CANCEL":
		return ExtraStatusToCancel, nil
	}
	return 0, fmt.Errorf("unknown extra status %q", s)
}
