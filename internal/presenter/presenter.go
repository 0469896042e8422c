// Package presenter maps telemetry samples and system stats onto the
// overview widgets.
package presenter

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"servodash/internal/loop"
	"servodash/internal/metrics"
	"servodash/internal/models"
	"servodash/internal/view"
)

// FlashFor is how long servo cards keep the data-update class after the
// last push.
const FlashFor = 300 * time.Millisecond

var statusWidgets = []string{
	"activeServos", "buttonStatus", "buttonCard", "ledStatus", "ledCard",
	"totalMessages", "lastUpdate", "connectionState", "uptime", "connectionStatus",
}

var channelWidgets = []string{"angle", "pot", "pwm", "progress", "thumb", "servo", "badge"}

// Widgets lists every widget the presenter writes to.
func Widgets() []string {
	out := append([]string(nil), statusWidgets...)
	for i := 1; i <= models.Channels; i++ {
		for _, p := range channelWidgets {
			out = append(out, fmt.Sprintf("%s%d", p, i))
		}
	}
	return out
}

type Presenter struct {
	board   *view.Board
	flash   *loop.Debouncer
	metrics *metrics.Metrics
	log     *slog.Logger
}

func New(board *view.Board, clock loop.Clock, m *metrics.Metrics, logger *slog.Logger) *Presenter {
	return &Presenter{
		board:   board,
		flash:   loop.NewDebouncer(clock, FlashFor),
		metrics: m,
		log:     logger,
	}
}

// with runs fn against the named widget, or logs and skips it.
func (p *Presenter) with(name string, fn func(w *view.Widget)) {
	w, ok := p.board.Widget(name)
	if !ok {
		p.log.Warn("widget not found", "widget", name)
		return
	}
	fn(w)
}

func rounded(v float64) string {
	return decimal.NewFromFloat(v).Round(0).String()
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func onOff(on bool) string {
	if on {
		return "ACCESO"
	}
	return "SPENTO"
}

func (p *Presenter) Render(s models.TelemetrySample) {
	for i, c := range s.Channels {
		p.renderChannel(i+1, c)
	}
	p.renderStatusBar(s)
}

func (p *Presenter) renderChannel(n int, c models.Channel) {
	id := func(prefix string) string { return fmt.Sprintf("%s%d", prefix, n) }
	p.with(id("angle"), func(w *view.Widget) {
		w.SetText(rounded(c.Angle))
		w.SetValue(c.Angle)
	})
	p.with(id("pot"), func(w *view.Widget) {
		w.SetText(rounded(c.PotPercent))
		w.SetValue(c.PotPercent)
	})
	p.with(id("pwm"), func(w *view.Widget) {
		w.SetText(strconv.Itoa(c.PWM))
		w.SetValue(float64(c.PWM))
	})
	p.with(id("progress"), func(w *view.Widget) {
		w.SetStyle("width", percent(c.AnglePercent))
		w.SetValue(c.AnglePercent)
	})
	p.with(id("thumb"), func(w *view.Widget) {
		w.SetStyle("left", fmt.Sprintf("calc(%s - 8px)", percent(c.AnglePercent)))
	})
	p.with(id("servo"), func(w *view.Widget) { w.SetClass("active", c.Active) })
	p.with(id("badge"), func(w *view.Widget) {
		w.SetClass("active", c.Active)
		if c.Active {
			w.SetText("ATTIVO")
		} else {
			w.SetText("STOP")
		}
	})
}

// renderStatusBar shows the button inverted and the LED derived from the
// button. A disagreeing led_state is logged and otherwise ignored.
func (p *Presenter) renderStatusBar(s models.TelemetrySample) {
	p.with("activeServos", func(w *view.Widget) {
		w.SetText(strconv.Itoa(s.ActiveCount))
		w.SetValue(float64(s.ActiveCount))
	})
	pressed := !s.ButtonPressed
	p.with("buttonStatus", func(w *view.Widget) {
		if pressed {
			w.SetText("PREMUTO")
		} else {
			w.SetText("LIBERO")
		}
	})
	p.with("buttonCard", func(w *view.Widget) { w.SetClass("pressed", pressed) })

	led := models.ExpectedLED(s.ButtonPressed)
	if s.LEDState != led {
		p.metrics.LEDMismatch()
		p.log.Warn("led state mismatch, showing derived state",
			"button_pressed", s.ButtonPressed, "led_state", s.LEDState, "expected", led)
	}
	p.with("ledStatus", func(w *view.Widget) { w.SetText(onOff(led)) })
	p.with("ledCard", func(w *view.Widget) { w.SetClass("on", led) })
}

// Flash marks every servo card as freshly updated until FlashFor after
// the last call.
func (p *Presenter) Flash() {
	p.setFlash(true)
	p.flash.Trigger(func() { p.setFlash(false) })
}

func (p *Presenter) setFlash(on bool) {
	for i := 1; i <= models.Channels; i++ {
		p.with(fmt.Sprintf("servo%d", i), func(w *view.Widget) { w.SetClass("data-update", on) })
	}
}

func (p *Presenter) RenderStats(st models.SystemStats, uptime time.Duration) {
	if st.MessagesLastHour != nil {
		n := *st.MessagesLastHour
		p.with("totalMessages", func(w *view.Widget) {
			w.SetText(strconv.Itoa(n))
			w.SetValue(float64(n))
		})
	}
	if !st.LastUpdate.IsZero() {
		p.with("lastUpdate", func(w *view.Widget) { w.SetText(st.LastUpdate.Local().Format("15:04:05")) })
	}
	p.with("connectionState", func(w *view.Widget) {
		if st.Status == "connected" {
			w.SetText("Connesso")
		} else {
			w.SetText("Disconnesso")
		}
	})
	p.with("uptime", func(w *view.Widget) { w.SetText(FormatUptime(uptime)) })
}

// FormatUptime renders whole seconds as HH:MM:SS. Hours do not wrap.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func (p *Presenter) SetConnected(on bool) {
	p.with("connectionStatus", func(w *view.Widget) {
		w.SetClass("connected", on)
		w.SetClass("disconnected", !on)
		if on {
			w.SetText("Connesso")
		} else {
			w.SetText("Disconnesso")
		}
	})
}

// Stop cancels the pending flash reset.
func (p *Presenter) Stop() { p.flash.Stop() }
