package odtemplate

import (
	"math"
	"testing"
	"time"
)

func TestSerialDay(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want float64
	}{
		{
			name: "unix epoch",
			time: time.Unix(0, 0).UTC(),
			want: 25569,
		},
		{
			name: "noon adds half a day",
			time: time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC),
			want: 25569.5,
		},
		{
			name: "y2k",
			time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 36526,
		},
		{
			name: "before the leap bug",
			time: time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC),
			want: 59,
		},
		{
			name: "first day after the leap bug",
			time: time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC),
			want: 61,
		},
		{
			name: "time zone is normalized",
			time: time.Date(1970, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			want: 25569,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerialDay(tt.time)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SerialDay(%v) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()

	tests := []struct {
		name         string
		field        string
		declaredType string
		values       Values
		wantOK       bool
		wantType     string
		wantValue    string
	}{
		{
			name:         "string direct match",
			field:        "name",
			declaredType: "string",
			values:       Values{"string": {"name": "Ada"}},
			wantOK:       true,
			wantType:     "string",
			wantValue:    "Ada",
		},
		{
			name:         "missing value",
			field:        "name",
			declaredType: "string",
			values:       Values{"string": {"other": "x"}},
		},
		{
			name:         "float from int",
			field:        "qty",
			declaredType: "float",
			values:       Values{"float": {"qty": 3}},
			wantOK:       true,
			wantType:     "float",
			wantValue:    "3",
		},
		{
			name:         "date aliases float",
			field:        "due",
			declaredType: "float",
			values:       Values{"date": {"due": epoch}},
			wantOK:       true,
			wantType:     "float",
			wantValue:    "25569",
		},
		{
			name:         "date from string",
			field:        "due",
			declaredType: "float",
			values:       Values{"date": {"due": "1970-01-01"}},
			wantOK:       true,
			wantType:     "float",
			wantValue:    "25569",
		},
		{
			name:         "currency divided by 100",
			field:        "total",
			declaredType: "float",
			values:       Values{"currency": {"total": Currency(1999)}},
			wantOK:       true,
			wantType:     "float",
			wantValue:    "19.99",
		},
		{
			name:         "fractional currency rejected",
			field:        "total",
			declaredType: "float",
			values:       Values{"currency": {"total": 19.5}},
		},
		{
			name:         "direct match wins over alias",
			field:        "x",
			declaredType: "float",
			values:       Values{"float": {"x": 2.5}, "currency": {"x": 100}},
			wantOK:       true,
			wantType:     "float",
			wantValue:    "2.5",
		},
		{
			name:         "aliases tried in sorted order",
			field:        "x",
			declaredType: "float",
			values:       Values{"date": {"x": epoch}, "currency": {"x": 100}},
			wantOK:       true,
			wantType:     "float",
			wantValue:    "1",
		},
		{
			name:         "string field does not take a float",
			field:        "name",
			declaredType: "string",
			values:       Values{"float": {"name": 1.0}},
		},
		{
			name:         "boolean",
			field:        "paid",
			declaredType: "boolean",
			values:       Values{"boolean": {"paid": true}},
			wantOK:       true,
			wantType:     "boolean",
			wantValue:    "true",
		},
		{
			name:         "unknown declared type",
			field:        "t",
			declaredType: "time",
			values:       Values{"time": {"t": "PT1H"}},
		},
		{
			name:         "nil value",
			field:        "name",
			declaredType: "string",
			values:       Values{"string": {"name": nil}},
		},
		{
			name:         "uncoercible float",
			field:        "qty",
			declaredType: "float",
			values:       Values{"float": {"qty": "many"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := Resolve(tt.field, tt.declaredType, tt.values)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if res.Type != tt.wantType {
				t.Errorf("Resolve() type = %q, want %q", res.Type, tt.wantType)
			}
			if got := res.String(); got != tt.wantValue {
				t.Errorf("Resolve() value = %q, want %q", got, tt.wantValue)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	values := Values{"date": {"x": time.Unix(0, 0)}, "currency": {"x": 250}}
	first, _ := Resolve("x", "float", values)
	for i := 0; i < 50; i++ {
		got, _ := Resolve("x", "float", values)
		if got != first {
			t.Fatalf("Resolve() = %v, then %v", first, got)
		}
	}
}

func TestFlatValues(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	values := FlatValues(map[string]any{
		"name":    "Ada",
		"qty":     int64(4),
		"price":   1.25,
		"paid":    false,
		"due":     now,
		"total":   Currency(500),
		"pct":     Typed{Type: "percentage", Value: 0.2},
		"ignored": struct{}{},
	})

	checks := map[string]string{
		"name":  "string",
		"qty":   "float",
		"price": "float",
		"paid":  "boolean",
		"due":   "date",
		"total": "currency",
		"pct":   "percentage",
	}
	for field, category := range checks {
		if _, ok := values[category][field]; !ok {
			t.Errorf("FlatValues() did not put %q under %q", field, category)
		}
	}
	for category, fields := range values {
		if _, ok := fields["ignored"]; ok {
			t.Errorf("unsupported value kept under %q", category)
		}
	}
}
