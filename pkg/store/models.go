package store

import "time"

// HostStatus is derived from (Acknowledged, Key) and never stored.
type HostStatus string

const (
	StatusNew      HostStatus = "new"
	StatusAccepted HostStatus = "accepted"
	StatusDeclined HostStatus = "declined"
	// StatusInvalid marks an unacknowledged host holding a key. No registry
	// operation produces it.
	StatusInvalid HostStatus = "invalid"
)

// Host is one reporting agent, looked up by hostname.
type Host struct {
	ID           uint   `gorm:"primaryKey"`
	Hostname     string `gorm:"size:50;index"`
	Interval     int
	Acknowledged bool    `gorm:"not null;default:false"`
	Key          *string `gorm:"size:50;uniqueIndex"`
	CreatedAt    time.Time
	LastReport   *time.Time
}

// Status maps the stored pair onto the admission state.
func (h *Host) Status() HostStatus {
	hasKey := h.Key != nil && *h.Key != ""
	switch {
	case h.Acknowledged && hasKey:
		return StatusAccepted
	case h.Acknowledged:
		return StatusDeclined
	case hasKey:
		return StatusInvalid
	default:
		return StatusNew
	}
}

// Report is one ingestion event. Reports and their values are immutable.
type Report struct {
	ID        uint `gorm:"primaryKey"`
	HostID    uint `gorm:"index;not null"`
	CreatedAt time.Time
	Values    []Value `gorm:"constraint:OnDelete:CASCADE"`
}

// ValueKind discriminates the payload held by a Value.
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindInteger ValueKind = "integer"
	KindFloat   ValueKind = "float"
)

// Value is a single metric sample. Exactly one of the payload columns is set,
// matching Kind; build values with StringValue, IntegerValue or FloatValue.
type Value struct {
	ID        uint      `gorm:"primaryKey"`
	ReportID  uint      `gorm:"index;not null"`
	Key       string    `gorm:"size:100"`
	Arg       string    `gorm:"size:100"`
	Kind      ValueKind `gorm:"size:16;not null"`
	String    *string   `gorm:"column:str_val;size:300"`
	Integer   *int64    `gorm:"column:int_val"`
	Float     *float64  `gorm:"column:float_val"`
	CreatedAt time.Time
}

func StringValue(key, arg, v string) Value {
	return Value{Key: key, Arg: arg, Kind: KindString, String: &v}
}

func IntegerValue(key, arg string, v int64) Value {
	return Value{Key: key, Arg: arg, Kind: KindInteger, Integer: &v}
}

func FloatValue(key, arg string, v float64) Value {
	return Value{Key: key, Arg: arg, Kind: KindFloat, Float: &v}
}

// Interface returns the payload as string, int64 or float64, or nil when the
// value is malformed.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		if v.String != nil {
			return *v.String
		}
	case KindInteger:
		if v.Integer != nil {
			return *v.Integer
		}
	case KindFloat:
		if v.Float != nil {
			return *v.Float
		}
	}
	return nil
}

// Trigger pairs a condition expression with the name of an alert action.
type Trigger struct {
	ID          uint   `gorm:"primaryKey"`
	HostID      uint   `gorm:"index;not null"`
	Name        string `gorm:"size:100"`
	Description string `gorm:"size:300"`
	Expression  string `gorm:"size:300;not null"`
	Action      string `gorm:"size:300;not null"`
	CreatedAt   time.Time
}

// TriggerState remembers the last evaluation of a trigger for edge detection.
type TriggerState struct {
	TriggerID   uint `gorm:"primaryKey;autoIncrement:false"`
	Triggered   bool
	EvaluatedAt time.Time
	FiredAt     *time.Time
}

// Models lists every table managed by the store, in migration order.
func Models() []any {
	return []any{&Host{}, &Report{}, &Value{}, &Trigger{}, &TriggerState{}}
}
