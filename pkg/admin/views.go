package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/haasonsaas/darkan/pkg/store"
)

// TimeLayout is the timestamp format of admin replies.
const TimeLayout = "2006-01-02 15:04:05"

// ID is a record id sent either as a JSON number or as a numeric string.
type ID uint

func (id *ID) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(n)
	return nil
}

type HostView struct {
	ID         uint             `json:"id"`
	Hostname   string           `json:"hostname"`
	Interval   int              `json:"interval"`
	Key        *string          `json:"key"`
	Status     store.HostStatus `json:"status"`
	Added      string           `json:"added"`
	LastReport *string          `json:"last_report"`
}

func newHostView(h store.Host) HostView {
	v := HostView{
		ID:       h.ID,
		Hostname: h.Hostname,
		Interval: h.Interval,
		Key:      h.Key,
		Status:   h.Status(),
		Added:    formatTime(h.CreatedAt),
	}
	if h.LastReport != nil {
		s := formatTime(*h.LastReport)
		v.LastReport = &s
	}
	return v
}

func hostViews(list []store.Host) []HostView {
	views := make([]HostView, 0, len(list))
	for _, h := range list {
		views = append(views, newHostView(h))
	}
	return views
}

type ValueView struct {
	Key   string          `json:"key"`
	Arg   string          `json:"arg"`
	Type  store.ValueKind `json:"type"`
	Value any             `json:"value"`
}

func newValueView(v store.Value) ValueView {
	return ValueView{Key: v.Key, Arg: v.Arg, Type: v.Kind, Value: v.Interface()}
}

type TriggerView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Added       string `json:"added"`
	HostID      uint   `json:"host_id"`
	Expression  string `json:"expression"`
	Action      string `json:"action"`
}

func newTriggerView(t store.Trigger) TriggerView {
	return TriggerView{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Added:       formatTime(t.CreatedAt),
		HostID:      t.HostID,
		Expression:  t.Expression,
		Action:      t.Action,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
