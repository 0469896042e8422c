package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Channels is the number of servo/potentiometer pairs on the rig.
const Channels = 3

// DefaultPWM is the duty value of a servo parked at 0 degrees.
const DefaultPWM = 26

type Channel struct {
	Angle        float64
	AnglePercent float64
	PotPercent   float64
	PotRaw       int
	PWM          int
	Active       bool
}

type TelemetrySample struct {
	Channels      [Channels]Channel
	ButtonPressed bool
	LEDState      bool
	ActiveCount   int

	present map[string]bool
}

// Has reports whether key carried a non-null value in the decoded payload.
func (s TelemetrySample) Has(key string) bool {
	return s.present[key]
}

// ExpectedLED is the LED state the rig should show for a given raw button
// flag. The receiver drives the LED off the inverted button line.
func ExpectedLED(buttonPressed bool) bool {
	return !buttonPressed
}

func AngleKey(ch int) string        { return fmt.Sprintf("servo%d_angle", ch) }
func AnglePercentKey(ch int) string { return fmt.Sprintf("servo%d_angle_percent", ch) }
func PotPercentKey(ch int) string   { return fmt.Sprintf("pot%d_percent", ch) }
func PotRawKey(ch int) string       { return fmt.Sprintf("pot%d_raw", ch) }
func PWMKey(ch int) string          { return fmt.Sprintf("servo%d_pwm", ch) }
func ActiveKey(ch int) string       { return fmt.Sprintf("servo%d_active", ch) }

func (s *TelemetrySample) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.decodeFields(raw)
	return nil
}

func (s *TelemetrySample) decodeFields(raw map[string]json.RawMessage) {
	*s = TelemetrySample{present: map[string]bool{}}
	for k, v := range raw {
		if !isNull(v) {
			s.present[k] = true
		}
	}
	for i := 0; i < Channels; i++ {
		n := i + 1
		c := &s.Channels[i]
		c.Angle = number(raw[AngleKey(n)])
		c.AnglePercent = number(raw[AnglePercentKey(n)])
		c.PotPercent = number(raw[PotPercentKey(n)])
		c.PotRaw = int(number(raw[PotRawKey(n)]))
		c.PWM = int(number(raw[PWMKey(n)]))
		if c.PWM == 0 {
			c.PWM = DefaultPWM
		}
		c.Active = truthy(raw[ActiveKey(n)])
	}
	s.ButtonPressed = truthy(raw["button_pressed"])
	s.LEDState = truthy(raw["led_state"])
	s.ActiveCount = int(number(raw["servos_active_count"]))
}

func (s TelemetrySample) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.fields())
}

func (s TelemetrySample) fields() map[string]any {
	out := map[string]any{
		"button_pressed":      boolInt(s.ButtonPressed),
		"led_state":           boolInt(s.LEDState),
		"servos_active_count": s.ActiveCount,
	}
	for i, c := range s.Channels {
		n := i + 1
		out[AngleKey(n)] = c.Angle
		out[AnglePercentKey(n)] = c.AnglePercent
		out[PotPercentKey(n)] = c.PotPercent
		out[PotRawKey(n)] = c.PotRaw
		out[PWMKey(n)] = c.PWM
		out[ActiveKey(n)] = boolInt(c.Active)
	}
	return out
}

type HistoryRow struct {
	TelemetrySample
	TimeStr string
	DateStr string
}

func (r *HistoryRow) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.TelemetrySample.decodeFields(raw)
	r.TimeStr = text(raw["time_str"])
	r.DateStr = text(raw["date_str"])
	return nil
}

func (r HistoryRow) MarshalJSON() ([]byte, error) {
	out := r.TelemetrySample.fields()
	out["time_str"] = r.TimeStr
	out["date_str"] = r.DateStr
	return json.Marshal(out)
}

// NewHistoryRow rebuilds a row from stored values. present lists the keys
// that carried data when the row was fetched.
func NewHistoryRow(s TelemetrySample, timeStr, dateStr string, present []string) HistoryRow {
	s.present = make(map[string]bool, len(present))
	for _, k := range present {
		s.present[k] = true
	}
	return HistoryRow{TelemetrySample: s, TimeStr: timeStr, DateStr: dateStr}
}

// PresentKeys lists the payload keys that carried a value.
func (s TelemetrySample) PresentKeys() []string {
	out := make([]string, 0, len(s.present))
	for k := range s.present {
		out = append(out, k)
	}
	return out
}

type SystemStats struct {
	MessagesLastHour *int
	LastUpdate       time.Time
	Status           string
}

func (st *SystemStats) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*st = SystemStats{}
	if v, ok := raw["messages_last_hour"]; ok && !isNull(v) {
		n := int(number(v))
		st.MessagesLastHour = &n
	}
	st.LastUpdate = parseTime(text(raw["last_update"]))
	st.Status = text(raw["status"])
	return nil
}

func (st SystemStats) MarshalJSON() ([]byte, error) {
	out := map[string]any{"status": st.Status}
	if st.MessagesLastHour != nil {
		out["messages_last_hour"] = *st.MessagesLastHour
	}
	if !st.LastUpdate.IsZero() {
		out["last_update"] = st.LastUpdate.Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// DataUpdate is the payload of the data_update push event.
type DataUpdate struct {
	Servo *TelemetrySample `json:"servo_data"`
	Stats *SystemStats     `json:"system_stats"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isNull(v json.RawMessage) bool {
	s := strings.TrimSpace(string(v))
	return s == "" || s == "null"
}

// number decodes a JSON number or numeric string. Anything else is 0.
func number(v json.RawMessage) float64 {
	if isNull(v) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil && b {
		return 1
	}
	return 0
}

// truthy reads a flag sent as bool, number, string or null. false, 0, null,
// and the strings "", "0" and "false" (any case) are false. Unlike
// JavaScript, numeric and boolean strings are read by value.
func truthy(v json.RawMessage) bool {
	if isNull(v) {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f != 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(strings.ToLower(s))
		return s != "" && s != "0" && s != "false"
	}
	return true
}

func text(v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.Trim(string(v), `"`)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
