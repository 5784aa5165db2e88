package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_StringAndParse(t *testing.T) {
	for s := StatusCreated; s <= StatusDone; s++ {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStatus("7")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got)

	got, err = ParseStatus("scheduled")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got)

	_, err = ParseStatus("8")
	assert.Error(t, err)
	_, err = ParseStatus("PAUSED")
	assert.Error(t, err)
}

func TestStatus_NumbersAreStable(t *testing.T) {
	assert.Equal(t, 0, int(StatusCreated))
	assert.Equal(t, 1, int(StatusScheduled))
	assert.Equal(t, 5, int(StatusCanceled))
	assert.Equal(t, 6, int(StatusError))
	assert.Equal(t, 7, int(StatusDone))
	assert.Equal(t, 1, int(ExtraStatusToCancel))
}

func TestWorkItem_JSONUsesLabels(t *testing.T) {
	extra := ExtraStatusToCancel
	w := NewWorkItem(KindJob, OwnerRef{Type: "account", ID: 3}, HandlerIDOf(2), StatusError)
	w.ExtraStatus = &extra

	b, err := json.Marshal(w)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "ERROR", m["status"])
	assert.Equal(t, "TO_CANCEL", m["extra_status"])
	assert.Equal(t, true, m["is_enabled"])

	var back WorkItem
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, StatusError, back.Status)
	require.NotNil(t, back.ExtraStatus)
	assert.Equal(t, ExtraStatusToCancel, *back.ExtraStatus)
}

func TestFilter_Match(t *testing.T) {
	owner := OwnerRef{Type: "account", ID: 1}
	other := OwnerRef{Type: "account", ID: 2}
	w := NewWorkItem(KindTask, owner, HandlerIDOf(4), StatusScheduled)
	w.ID = "abc"

	enabled, disabled := true, false
	cancel := ExtraStatusToCancel

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"id", Filter{ID: "abc"}, true},
		{"wrong id", Filter{ID: "xyz"}, false},
		{"kind", Filter{Kind: KindTask}, true},
		{"wrong kind", Filter{Kind: KindJob}, false},
		{"owner", Filter{Owner: &owner}, true},
		{"wrong owner", Filter{Owner: &other}, false},
		{"handler", Filter{HandlerID: HandlerIDOf(4)}, true},
		{"wrong handler", Filter{HandlerID: HandlerIDOf(5)}, false},
		{"status in", Filter{Statuses: SchedulableStatuses}, true},
		{"status not in", Filter{Statuses: []Status{StatusError, StatusCanceled}}, false},
		{"enabled", Filter{IsEnabled: &enabled}, true},
		{"disabled", Filter{IsEnabled: &disabled}, false},
		{"extra status unset", Filter{ExtraStatus: &cancel}, false},
		{"due", DueFilter(KindTask), true},
		{"due other kind", DueFilter(KindJob), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Match(w))
		})
	}
}

func TestFilter_NilHandlerDoesNotMatchConcreteID(t *testing.T) {
	w := NewWorkItem(KindJob, OwnerRef{Type: "a", ID: 1}, nil, StatusCreated)
	assert.False(t, Filter{HandlerID: HandlerIDOf(0)}.Match(w))
	assert.True(t, Filter{}.Match(w))
}

func TestFilter_HandlerIDNull(t *testing.T) {
	bare := NewWorkItem(KindJob, OwnerRef{Type: "a", ID: 1}, nil, StatusCreated)
	with := NewWorkItem(KindJob, OwnerRef{Type: "a", ID: 1}, HandlerIDOf(5), StatusCreated)

	f := Filter{}.ForHandler(nil)
	assert.True(t, f.HandlerIDNull)
	assert.True(t, f.Match(bare))
	assert.False(t, f.Match(with))

	f = Filter{}.ForHandler(HandlerIDOf(5))
	assert.False(t, f.HandlerIDNull)
	assert.False(t, f.Match(bare))
	assert.True(t, f.Match(with))
}

func TestWorkItem_String(t *testing.T) {
	w := NewWorkItem(KindTask, OwnerRef{}, nil, StatusCreated)
	w.Created = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Task - 2024-05-01 12:00:00.000000+00:00", w.String())
	assert.Equal(t, "None", HandlerLabel(nil))
	assert.Equal(t, "12", HandlerLabel(HandlerIDOf(12)))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("job")
	require.NoError(t, err)
	assert.Equal(t, KindJob, k)
	_, err = ParseKind("cron")
	assert.Error(t, err)
}
