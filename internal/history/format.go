package history

import (
	"strconv"

	"github.com/shopspring/decimal"

	"servodash/internal/models"
)

// Row holds the display cells of one table row.
type Row struct {
	Time        string    `json:"time"`
	Date        string    `json:"date"`
	Angles      [3]string `json:"angles"`
	Pots        [3]string `json:"pots"`
	Button      string    `json:"button"`
	ButtonClass string    `json:"button_class,omitempty"`
	LED         string    `json:"led"`
	LEDClass    string    `json:"led_class,omitempty"`
	Active      string    `json:"active"`
}

// FormatValue rounds to one decimal and drops trailing zeros. Missing
// values render as "-".
func FormatValue(v float64, present bool, suffix string) string {
	if !present {
		return "-"
	}
	return decimal.NewFromFloat(v).Round(1).String() + suffix
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatRow builds the cells for r. The button column uses the inverted
// display convention. The LED column shows led_state as recorded.
func FormatRow(r models.HistoryRow) Row {
	out := Row{
		Time:   orDash(r.TimeStr),
		Date:   orDash(r.DateStr),
		Active: strconv.Itoa(r.ActiveCount),
	}
	for i := 0; i < models.Channels; i++ {
		n := i + 1
		c := r.Channels[i]
		out.Angles[i] = FormatValue(c.Angle, r.Has(models.AngleKey(n)), "°")
		out.Pots[i] = FormatValue(c.PotPercent, r.Has(models.PotPercentKey(n)), "%")
	}
	if r.ButtonPressed {
		out.Button = "LIBERO"
	} else {
		out.Button = "PREMUTO"
		out.ButtonClass = "btn-pressed"
	}
	if r.LEDState {
		out.LED = "ACCESO"
		out.LEDClass = "led-on"
	} else {
		out.LED = "SPENTO"
	}
	return out
}
