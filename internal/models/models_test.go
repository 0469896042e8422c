package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTelemetrySampleDefaultsMissingFields(t *testing.T) {
	var s TelemetrySample
	if err := json.Unmarshal([]byte(`{"servo1_angle": 90, "pot1_percent": 50, "button_pressed": 1, "led_state": 0, "servos_active_count": 2}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Channels[0].Angle != 90 || s.Channels[0].PotPercent != 50 {
		t.Fatalf("channel 1 = %+v", s.Channels[0])
	}
	for i, c := range s.Channels {
		if c.PWM != DefaultPWM {
			t.Fatalf("channel %d pwm = %d, want %d", i+1, c.PWM, DefaultPWM)
		}
	}
	if s.Channels[1].Angle != 0 || s.Channels[2].AnglePercent != 0 {
		t.Fatalf("missing numbers should default to 0: %+v", s.Channels)
	}
	if !s.ButtonPressed || s.LEDState || s.ActiveCount != 2 {
		t.Fatalf("status fields = %+v", s)
	}
	if !s.Has("servo1_angle") || s.Has("servo2_angle") {
		t.Fatal("presence tracking is wrong")
	}
}

func TestTelemetrySampleToleratesMalformedFields(t *testing.T) {
	payload := `{"servo1_angle": "45.5", "servo2_angle": {"bad": true}, "servo3_angle": null,
		"servo1_active": "1", "servo2_active": true, "servo3_active": 0, "button_pressed": "false", "servo1_pwm": 0}`
	var s TelemetrySample
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		t.Fatalf("malformed fields must not fail decode: %v", err)
	}
	if s.Channels[0].Angle != 45.5 {
		t.Fatalf("numeric string angle = %v, want 45.5", s.Channels[0].Angle)
	}
	if s.Channels[1].Angle != 0 || s.Channels[2].Angle != 0 {
		t.Fatalf("bad values should default to 0: %+v", s.Channels)
	}
	if !s.Channels[0].Active || !s.Channels[1].Active || s.Channels[2].Active {
		t.Fatalf("active flags = %v %v %v", s.Channels[0].Active, s.Channels[1].Active, s.Channels[2].Active)
	}
	if s.ButtonPressed {
		t.Fatal(`"false" should decode as not pressed`)
	}
	if s.Channels[0].PWM != DefaultPWM {
		t.Fatalf("zero pwm = %d, want default", s.Channels[0].PWM)
	}
	if s.Has("servo3_angle") {
		t.Fatal("null value must not count as present")
	}
}

func TestHistoryRowRoundTrip(t *testing.T) {
	in := `{"time_str":"12:00:01","date_str":"2025-06-01","servo1_angle":10.25,"button_pressed":0,"led_state":1}`
	var r HistoryRow
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.TimeStr != "12:00:01" || r.DateStr != "2025-06-01" || r.Channels[0].Angle != 10.25 {
		t.Fatalf("row = %+v", r)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal back: %v", err)
	}
	if back["time_str"] != "12:00:01" || back["led_state"] != float64(1) {
		t.Fatalf("marshalled row = %v", back)
	}
}

func TestSystemStatsParsesPythonTimestamps(t *testing.T) {
	var st SystemStats
	if err := json.Unmarshal([]byte(`{"messages_last_hour": 42, "last_update": "2025-06-01T10:20:30.123456", "status": "connected"}`), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.MessagesLastHour == nil || *st.MessagesLastHour != 42 {
		t.Fatalf("messages = %v", st.MessagesLastHour)
	}
	want := time.Date(2025, 6, 1, 10, 20, 30, 123456000, time.Local)
	if !st.LastUpdate.Equal(want) {
		t.Fatalf("last update = %v, want %v", st.LastUpdate, want)
	}

	var empty SystemStats
	if err := json.Unmarshal([]byte(`{"status": "idle"}`), &empty); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if empty.MessagesLastHour != nil || !empty.LastUpdate.IsZero() {
		t.Fatalf("absent fields should stay unset: %+v", empty)
	}
}

func TestDataUpdateDecodesBothParts(t *testing.T) {
	var u DataUpdate
	if err := json.Unmarshal([]byte(`{"servo_data": {"servo2_angle": 30}, "system_stats": {"status": "connected"}}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Servo == nil || u.Servo.Channels[1].Angle != 30 {
		t.Fatalf("servo = %+v", u.Servo)
	}
	if u.Stats == nil || u.Stats.Status != "connected" {
		t.Fatalf("stats = %+v", u.Stats)
	}
}

func TestExpectedLED(t *testing.T) {
	if ExpectedLED(true) || !ExpectedLED(false) {
		t.Fatal("LED must follow the inverted button line")
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{
		`null`: false, `false`: false, `0`: false, `0.0`: false,
		`""`: false, `"0"`: false, `"FALSE"`: false, `" false "`: false,
		`true`: true, `1`: true, `-2`: true, `"1"`: true, `"yes"`: true, `[]`: true,
	}
	for in, want := range cases {
		if got := truthy(json.RawMessage(in)); got != want {
			t.Fatalf("truthy(%s) = %v, want %v", in, got, want)
		}
	}
}
