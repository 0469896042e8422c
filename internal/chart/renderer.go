package chart

import (
	"log/slog"

	"servodash/internal/models"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 320
)

// Renderer owns the servo-angle and potentiometer windows. Both windows
// always hold the same labels.
type Renderer struct {
	Servo *Window
	Pot   *Window

	width, height int
	version       uint64
	resizes       int
	log           *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{
		Servo:  NewWindow("Angoli servo", "Angolo (°)", 180, "Servo 1", "Servo 2", "Servo 3"),
		Pot:    NewWindow("Potenziometri", "Percentuale (%)", 100, "Pot 1", "Pot 2", "Pot 3"),
		width:  DefaultWidth,
		height: DefaultHeight,
		log:    logger,
	}
}

func (r *Renderer) Append(label string, s models.TelemetrySample) {
	if r.Servo.Full() {
		r.Servo.Evict()
		r.Pot.Evict()
	}
	c := s.Channels
	r.Servo.Push(label, c[0].Angle, c[1].Angle, c[2].Angle)
	r.Pot.Push(label, c[0].PotPercent, c[1].PotPercent, c[2].PotPercent)
	r.redraw()
}

func (r *Renderer) Clear() {
	r.Servo.Reset()
	r.Pot.Reset()
	r.redraw()
	r.log.Info("charts cleared")
}

// Resize records the drawable area. Charts laid out while hidden need this
// once they become visible again.
func (r *Renderer) Resize(width, height int) {
	if width > 0 {
		r.width = width
	}
	if height > 0 {
		r.height = height
	}
	r.resizes++
	r.redraw()
	r.log.Debug("charts resized", "width", r.width, "height", r.height)
}

func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Resizes counts Resize calls.
func (r *Renderer) Resizes() int { return r.resizes }

// Version changes on every redraw.
func (r *Renderer) Version() uint64 { return r.version }

func (r *Renderer) redraw() { r.version++ }
