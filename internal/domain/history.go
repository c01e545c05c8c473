package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FieldKind discriminates the typed values of a history diff.
type FieldKind string

const (
	KindString   FieldKind = "string"
	KindInteger  FieldKind = "integer"
	KindBoolean  FieldKind = "boolean"
	KindFloat    FieldKind = "float"
	KindDate     FieldKind = "date"
	KindDateTime FieldKind = "datetime"
	KindTime     FieldKind = "time"
	KindDecimal  FieldKind = "decimal"
)

const (
	historyDateLayout = "2006-01-02"
	historyTimeLayout = "15:04:05"
)

// Value is a single typed value. Only the field selected by Kind is set.
type Value struct {
	Kind    FieldKind
	Null    bool
	String  string
	Int     int64
	Bool    bool
	Float   float64
	Time    time.Time
	Decimal decimal.Decimal
}

func StringValue(s string) Value { return Value{Kind: KindString, String: s} }
func IntValue(i int64) Value { return Value{Kind: KindInteger, Int: i} }
func BoolValue(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func DecimalValue(d decimal.Decimal) Value { return Value{Kind: KindDecimal, Decimal: d} }
func NullValue(kind FieldKind) Value { return Value{Kind: kind, Null: true} }
func TimeValue(kind FieldKind, t time.Time) Value {
	return Value{Kind: kind, Time: t}
}

// TimePtrValue maps a nil time to a null value.
func TimePtrValue(kind FieldKind, t *time.Time) Value {
	if t == nil {
		return NullValue(kind)
	}

	return TimeValue(kind, *t)
}

// Equal compares two values of the same kind.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Null != o.Null {
		return false
	}

	if v.Null {
		return true
	}

	switch v.Kind {
	case KindString:
		return v.String == o.String
	case KindInteger:
		return v.Int == o.Int
	case KindBoolean:
		return v.Bool == o.Bool
	case KindFloat:
		return v.Float == o.Float
	case KindDate, KindDateTime, KindTime:
		return v.Time.Equal(o.Time)
	case KindDecimal:
		return v.Decimal.Equal(o.Decimal)
	}

	return false
}

func (v Value) raw() any {
	if v.Null {
		return nil
	}

	switch v.Kind {
	case KindString:
		return v.String
	case KindInteger:
		return v.Int
	case KindBoolean:
		return v.Bool
	case KindFloat:
		return v.Float
	case KindDate:
		return v.Time.Format(historyDateLayout)
	case KindDateTime:
		return v.Time.Format(time.RFC3339Nano)
	case KindTime:
		return v.Time.Format(historyTimeLayout)
	case KindDecimal:
		return v.Decimal.String()
	}

	return nil
}

func parseValue(kind FieldKind, raw json.RawMessage) (Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NullValue(kind), nil
	}

	switch kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case KindInteger:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, err
		}
		i, err := n.Int64()
		if err != nil {
			return Value{}, err
		}
		return IntValue(i), nil
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case KindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case KindDate, KindDateTime, KindTime:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		t, err := parseHistoryTime(kind, s)
		if err != nil {
			return Value{}, err
		}
		return TimeValue(kind, t), nil
	case KindDecimal:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			// numbers are accepted as well as strings
			s = string(raw)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil
	}

	return Value{}, fmt.Errorf("unknown field kind %q", kind)
}

func parseHistoryTime(kind FieldKind, s string) (time.Time, error) {
	switch kind {
	case KindDate:
		return time.Parse(historyDateLayout, s)
	case KindTime:
		return time.Parse(historyTimeLayout, s)
	default:
		return time.Parse(time.RFC3339Nano, s)
	}
}

// FieldDiff is the change of one scalar field.
type FieldDiff struct {
	Kind FieldKind
	From Value
	To   Value
}

// RowDiff is the change of one row of a has-many collection. New rows only
// carry their position.
type RowDiff struct {
	ID        string
	Index     int
	NewRecord bool
	Fields    map[string]FieldDiff
}

// HistoryData is the typed diff between two versions of a record.
type HistoryData struct {
	Fields      map[string]FieldDiff
	Collections map[string][]RowDiff
}

// IsEmpty reports whether nothing changed.
func (h HistoryData) IsEmpty() bool {
	return len(h.Fields) == 0 && len(h.Collections) == 0
}

// Attributes returns the changed attribute names, sorted.
func (h HistoryData) Attributes() []string {
	out := make([]string, 0, len(h.Fields)+len(h.Collections))
	for k := range h.Fields {
		out = append(out, k)
	}
	for k := range h.Collections {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// History is a stored diff of one record.
type History struct {
	ID              string
	HistoriableType string
	HistoriableID   string
	UserID          string
	Data            HistoryData
	CreatedAt       time.Time
}

type rawFieldDiff struct {
	Type FieldKind `json:"type"`
	From any       `json:"from"`
	To   any       `json:"to"`
}

func fieldsToRaw(fields map[string]FieldDiff) map[string]any {
	out := make(map[string]any, len(fields))
	for k, f := range fields {
		out[k] = rawFieldDiff{Type: f.Kind, From: f.From.raw(), To: f.To.raw()}
	}

	return out
}

// MarshalJSON writes the stored blob format: scalar fields as
// {"type","from","to"} objects and collections as arrays of rows.
func (h HistoryData) MarshalJSON() ([]byte, error) {
	out := fieldsToRaw(h.Fields)

	for name, rows := range h.Collections {
		arr := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			if r.NewRecord {
				arr = append(arr, map[string]any{"index": r.Index, "new_record": true})
				continue
			}
			m := fieldsToRaw(r.Fields)
			m["id"] = r.ID
			m["index"] = r.Index
			arr = append(arr, m)
		}
		out[name] = arr
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the stored blob into typed values.
func (h *HistoryData) UnmarshalJSON(b []byte) error {
	d, err := DecodeHistoryData(b)
	if err != nil {
		return err
	}

	*h = d

	return nil
}

// DecodeHistoryData parses a stored history blob.
func DecodeHistoryData(b []byte) (HistoryData, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return HistoryData{}, err
	}

	h := HistoryData{
		Fields:      map[string]FieldDiff{},
		Collections: map[string][]RowDiff{},
	}

	for name, raw := range top {
		if len(raw) > 0 && raw[0] == '[' {
			rows, err := decodeRows(raw)
			if err != nil {
				return HistoryData{}, fmt.Errorf("history %s: %w", name, err)
			}
			h.Collections[name] = rows
			continue
		}

		f, err := decodeField(raw)
		if err != nil {
			return HistoryData{}, fmt.Errorf("history %s: %w", name, err)
		}
		h.Fields[name] = f
	}

	return h, nil
}

func decodeField(raw json.RawMessage) (FieldDiff, error) {
	var f struct {
		Type FieldKind       `json:"type"`
		From json.RawMessage `json:"from"`
		To   json.RawMessage `json:"to"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return FieldDiff{}, err
	}

	from, err := parseValue(f.Type, f.From)
	if err != nil {
		return FieldDiff{}, err
	}

	to, err := parseValue(f.Type, f.To)
	if err != nil {
		return FieldDiff{}, err
	}

	return FieldDiff{Kind: f.Type, From: from, To: to}, nil
}

func decodeRows(raw json.RawMessage) ([]RowDiff, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	rows := make([]RowDiff, 0, len(items))
	for _, item := range items {
		var newRecord bool
		if v, ok := item["new_record"]; ok {
			if err := json.Unmarshal(v, &newRecord); err != nil {
				return nil, fmt.Errorf("new_record: %w", err)
			}
		}

		var idx int
		if v, ok := item["index"]; ok {
			if err := json.Unmarshal(v, &idx); err != nil {
				return nil, fmt.Errorf("index: %w", err)
			}
		}

		if newRecord {
			rows = append(rows, RowDiff{Index: idx, NewRecord: true})
			continue
		}

		row := RowDiff{Index: idx, Fields: map[string]FieldDiff{}}
		for k, v := range item {
			switch k {
			case "id":
				row.ID = decodeID(v)
				continue
			case "index", "new_record":
				continue
			}
			f, err := decodeField(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			row.Fields[k] = f
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// decodeID accepts string and numeric ids.
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}

	return ""
}

type differ map[string]FieldDiff

func (d differ) add(name string, from, to Value) {
	if !from.Equal(to) {
		d[name] = FieldDiff{Kind: from.Kind, From: from, To: to}
	}
}

// DiffLedgerEntry returns the changes between two versions of an entry.
func DiffLedgerEntry(before, after *LedgerEntry) HistoryData {
	d := differ{}
	d.add("active", BoolValue(before.Active), BoolValue(after.Active))
	d.add("conciliation", BoolValue(before.Conciliation), BoolValue(after.Conciliation))
	d.add("approver_id", StringValue(before.ApproverID), StringValue(after.ApproverID))
	d.add("approver_datetime", TimePtrValue(KindDateTime, before.ApproverAt), TimePtrValue(KindDateTime, after.ApproverAt))
	d.add("nuller_id", StringValue(before.NullerID), StringValue(after.NullerID))
	d.add("nuller_datetime", TimePtrValue(KindDateTime, before.NullerAt), TimePtrValue(KindDateTime, after.NullerAt))
	d.add("to_id", StringValue(before.ToID), StringValue(after.ToID))
	d.add("amount", DecimalValue(before.Amount), DecimalValue(after.Amount))
	d.add("description", StringValue(before.Description), StringValue(after.Description))

	h := HistoryData{Fields: map[string]FieldDiff(d), Collections: map[string][]RowDiff{}}

	old := make(map[string]*LedgerDetail, len(before.Details))
	for _, det := range before.Details {
		old[det.ID] = det
	}

	var rows []RowDiff
	for i, det := range after.Details {
		prev, ok := old[det.ID]
		if !ok || det.ID == "" {
			rows = append(rows, RowDiff{Index: i, NewRecord: true})
			continue
		}
		rd := differ{}
		rd.add("state", StringValue(string(prev.State)), StringValue(string(det.State)))
		rd.add("active", BoolValue(prev.Active), BoolValue(det.Active))
		if len(rd) > 0 {
			rows = append(rows, RowDiff{ID: det.ID, Index: i, Fields: map[string]FieldDiff(rd)})
		}
	}
	if len(rows) > 0 {
		h.Collections["account_ledger_details"] = rows
	}

	return h
}

// DiffTransaction returns the payment-related changes of a transaction.
func DiffTransaction(before, after *Transaction) HistoryData {
	d := differ{}
	d.add("balance", DecimalValue(before.Balance), DecimalValue(after.Balance))
	d.add("state", StringValue(string(before.State)), StringValue(string(after.State)))
	d.add("payment_date", TimeValue(KindDate, before.PaymentDate), TimeValue(KindDate, after.PaymentDate))

	h := HistoryData{Fields: map[string]FieldDiff(d), Collections: map[string][]RowDiff{}}

	old := make(map[string]*PayPlan, len(before.PayPlans))
	for _, pp := range before.PayPlans {
		old[pp.ID] = pp
	}

	var rows []RowDiff
	for i, pp := range after.PayPlans {
		prev, ok := old[pp.ID]
		if !ok || pp.ID == "" {
			rows = append(rows, RowDiff{Index: i, NewRecord: true})
			continue
		}
		rd := differ{}
		rd.add("paid", BoolValue(prev.Paid), BoolValue(pp.Paid))
		rd.add("amount", DecimalValue(prev.Amount), DecimalValue(pp.Amount))
		if len(rd) > 0 {
			rows = append(rows, RowDiff{ID: pp.ID, Index: i, Fields: map[string]FieldDiff(rd)})
		}
	}
	if len(rows) > 0 {
		h.Collections["pay_plans"] = rows
	}

	return h
}

// Clone returns a deep copy of the transaction and its pay plans.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.PayPlans = make(PayPlans, len(t.PayPlans))
	for i, pp := range t.PayPlans {
		cp := *pp
		c.PayPlans[i] = &cp
	}

	return &c
}
