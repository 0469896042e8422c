package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"servodash/internal/loop"
	"servodash/internal/metrics"
	"servodash/internal/models"
	"servodash/internal/view"
)

func decode(t *testing.T, body string) models.TelemetrySample {
	t.Helper()
	var s models.TelemetrySample
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return s
}

func newPresenter(t *testing.T, names ...string) (*Presenter, *view.Board, *loop.Fake, *metrics.Metrics, *bytes.Buffer) {
	t.Helper()
	if len(names) == 0 {
		names = Widgets()
	}
	board := view.NewBoard(names...)
	fake := loop.NewFake(time.Unix(0, 0))
	m := metrics.New()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return New(board, fake, m, logger), board, fake, m, &logs
}

func assertMismatches(t *testing.T, m *metrics.Metrics, want int) {
	t.Helper()
	expected := fmt.Sprintf(`# HELP servodash_led_mismatch_total Samples whose led_state disagreed with the inverted button flag.
# TYPE servodash_led_mismatch_total counter
servodash_led_mismatch_total %d
`, want)
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "servodash_led_mismatch_total"); err != nil {
		t.Fatalf("mismatch counter: %v", err)
	}
}

func TestRenderReferenceSample(t *testing.T) {
	p, board, _, m, logs := newPresenter(t)
	p.Render(decode(t, `{"servo1_angle":90,"pot1_percent":50,"button_pressed":1,"led_state":0,"servos_active_count":2}`))

	snap := board.Snapshot()
	checks := map[string]string{
		"angle1":       "90",
		"pot1":         "50",
		"pwm1":         "26",
		"buttonStatus": "LIBERO",
		"ledStatus":    "SPENTO",
		"activeServos": "2",
		"badge1":       "STOP",
	}
	for name, want := range checks {
		if got := snap[name].Text; got != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if snap["buttonCard"].HasClass("pressed") || snap["ledCard"].HasClass("on") {
		t.Fatalf("cards = %+v %+v", snap["buttonCard"], snap["ledCard"])
	}
	assertMismatches(t, m, 0)
	if strings.Contains(logs.String(), "mismatch") {
		t.Fatal("consistent sample logged a mismatch")
	}
}

func TestLEDIsAlwaysDerivedFromButton(t *testing.T) {
	cases := []struct {
		body       string
		button     string
		led        string
		mismatched bool
	}{
		{`{"button_pressed":0,"led_state":1}`, "PREMUTO", "ACCESO", false},
		{`{"button_pressed":0,"led_state":0}`, "PREMUTO", "ACCESO", true},
		{`{"button_pressed":1,"led_state":1}`, "LIBERO", "SPENTO", true},
		{`{"button_pressed":true,"led_state":false}`, "LIBERO", "SPENTO", false},
	}
	for _, tc := range cases {
		p, board, _, m, logs := newPresenter(t)
		p.Render(decode(t, tc.body))
		snap := board.Snapshot()
		if snap["buttonStatus"].Text != tc.button || snap["ledStatus"].Text != tc.led {
			t.Fatalf("%s: button=%q led=%q", tc.body, snap["buttonStatus"].Text, snap["ledStatus"].Text)
		}
		if snap["ledCard"].HasClass("on") != (tc.led == "ACCESO") {
			t.Fatalf("%s: ledCard classes = %v", tc.body, snap["ledCard"].Classes)
		}
		if snap["buttonCard"].HasClass("pressed") != (tc.button == "PREMUTO") {
			t.Fatalf("%s: buttonCard classes = %v", tc.body, snap["buttonCard"].Classes)
		}
		want := 0
		if tc.mismatched {
			want = 1
		}
		assertMismatches(t, m, want)
		if tc.mismatched != strings.Contains(logs.String(), "mismatch") {
			t.Fatalf("%s: log = %q", tc.body, logs.String())
		}
	}
}

func TestRenderChannelStyles(t *testing.T) {
	p, board, _, _, _ := newPresenter(t)
	p.Render(decode(t, `{"servo2_angle":44.6,"servo2_angle_percent":24.5,"servo2_pwm":40,"servo2_active":1}`))
	snap := board.Snapshot()
	if snap["angle2"].Text != "45" || snap["pwm2"].Text != "40" {
		t.Fatalf("angle2=%q pwm2=%q", snap["angle2"].Text, snap["pwm2"].Text)
	}
	if snap["progress2"].Style["width"] != "24.5%" {
		t.Fatalf("width = %q", snap["progress2"].Style["width"])
	}
	if snap["thumb2"].Style["left"] != "calc(24.5% - 8px)" {
		t.Fatalf("left = %q", snap["thumb2"].Style["left"])
	}
	if !snap["servo2"].HasClass("active") || !snap["badge2"].HasClass("active") || snap["badge2"].Text != "ATTIVO" {
		t.Fatalf("servo2=%+v badge2=%+v", snap["servo2"], snap["badge2"])
	}
}

func TestMissingWidgetIsSkipped(t *testing.T) {
	p, board, _, _, logs := newPresenter(t, "angle1", "buttonStatus")
	p.Render(decode(t, `{"servo1_angle":10,"button_pressed":0}`))
	snap := board.Snapshot()
	if snap["angle1"].Text != "10" || snap["buttonStatus"].Text != "PREMUTO" {
		t.Fatalf("bound widgets not updated: %+v", snap)
	}
	if !strings.Contains(logs.String(), "widget not found") {
		t.Fatal("missing widget was not logged")
	}
}

func TestFlashClearsAfterLastPush(t *testing.T) {
	p, board, fake, _, _ := newPresenter(t)
	p.Flash()
	fake.Advance(200 * time.Millisecond)
	p.Flash()
	fake.Advance(200 * time.Millisecond)
	if !board.Snapshot()["servo1"].HasClass("data-update") {
		t.Fatal("flash cleared too early")
	}
	fake.Advance(100 * time.Millisecond)
	if board.Snapshot()["servo3"].HasClass("data-update") {
		t.Fatal("flash still set after 300ms of quiet")
	}
}

func TestRenderStats(t *testing.T) {
	p, board, _, _, _ := newPresenter(t)
	n := 42
	last := time.Date(2025, 6, 1, 14, 5, 9, 0, time.Local)
	p.RenderStats(models.SystemStats{MessagesLastHour: &n, LastUpdate: last, Status: "connected"}, 3725*time.Second)
	snap := board.Snapshot()
	if snap["totalMessages"].Text != "42" || snap["lastUpdate"].Text != "14:05:09" {
		t.Fatalf("stats = %+v %+v", snap["totalMessages"], snap["lastUpdate"])
	}
	if snap["connectionState"].Text != "Connesso" || snap["uptime"].Text != "01:02:05" {
		t.Fatalf("state=%q uptime=%q", snap["connectionState"].Text, snap["uptime"].Text)
	}

	p.RenderStats(models.SystemStats{Status: "idle"}, 0)
	snap = board.Snapshot()
	if snap["totalMessages"].Text != "42" {
		t.Fatal("absent message count overwrote the widget")
	}
	if snap["connectionState"].Text != "Disconnesso" {
		t.Fatalf("state = %q", snap["connectionState"].Text)
	}
}

func TestSetConnected(t *testing.T) {
	p, board, _, _, _ := newPresenter(t)
	p.SetConnected(true)
	st := board.Snapshot()["connectionStatus"]
	if st.Text != "Connesso" || !st.HasClass("connected") || st.HasClass("disconnected") {
		t.Fatalf("connected = %+v", st)
	}
	p.SetConnected(false)
	st = board.Snapshot()["connectionStatus"]
	if st.Text != "Disconnesso" || !st.HasClass("disconnected") {
		t.Fatalf("disconnected = %+v", st)
	}
}
