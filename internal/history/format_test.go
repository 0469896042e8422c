package history

import (
	"encoding/json"
	"testing"

	"servodash/internal/models"
)

func TestFormatRowShowsRecordedLED(t *testing.T) {
	cases := []struct {
		body      string
		wantLED   string
		wantClass string
	}{
		// button pressed and LED on: the row keeps what was recorded
		{`{"button_pressed":1,"led_state":1}`, "ACCESO", "led-on"},
		{`{"button_pressed":0,"led_state":0}`, "SPENTO", ""},
		{`{"button_pressed":0,"led_state":1}`, "ACCESO", "led-on"},
		{`{"button_pressed":1}`, "SPENTO", ""},
	}
	for _, tc := range cases {
		var r models.HistoryRow
		if err := json.Unmarshal([]byte(tc.body), &r); err != nil {
			t.Fatalf("decode %s: %v", tc.body, err)
		}
		got := FormatRow(r)
		if got.LED != tc.wantLED || got.LEDClass != tc.wantClass {
			t.Fatalf("FormatRow(%s) led = %q/%q, want %q/%q", tc.body, got.LED, got.LEDClass, tc.wantLED, tc.wantClass)
		}
	}
}

func TestFormatRowActiveCount(t *testing.T) {
	var r models.HistoryRow
	if err := json.Unmarshal([]byte(`{"servos_active_count":3}`), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := FormatRow(r).Active; got != "3" {
		t.Fatalf("active = %q, want 3", got)
	}
	if got := FormatRow(models.HistoryRow{}).Active; got != "0" {
		t.Fatalf("empty active = %q, want 0", got)
	}
}

func TestFormatValueRounding(t *testing.T) {
	cases := []struct {
		v       float64
		present bool
		want    string
	}{
		{90.04, true, "90°"},
		{12.25, true, "12.3°"},
		{0, true, "0°"},
		{0, false, "-"},
	}
	for _, tc := range cases {
		if got := FormatValue(tc.v, tc.present, "°"); got != tc.want {
			t.Fatalf("FormatValue(%v, %v) = %q, want %q", tc.v, tc.present, got, tc.want)
		}
	}
}
