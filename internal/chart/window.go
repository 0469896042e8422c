package chart

// MaxPoints bounds every rolling window.
const MaxPoints = 50

// Window is a rolling set of series sharing one label axis.
type Window struct {
	Title  string
	Unit   string
	Max    float64
	Names  []string
	labels []string
	series [][]float64
}

func NewWindow(title, unit string, max float64, names ...string) *Window {
	return &Window{Title: title, Unit: unit, Max: max, Names: names, series: make([][]float64, len(names))}
}

func (w *Window) Len() int { return len(w.labels) }

// Full reports whether the next push evicts the oldest point.
func (w *Window) Full() bool { return len(w.labels) >= MaxPoints }

// Evict drops the oldest label and the oldest value of every series.
func (w *Window) Evict() {
	if len(w.labels) == 0 {
		return
	}
	w.labels = w.labels[1:]
	for i := range w.series {
		if len(w.series[i]) > 0 {
			w.series[i] = w.series[i][1:]
		}
	}
}

// Push appends one point. values must have one entry per series.
func (w *Window) Push(label string, values ...float64) {
	w.labels = append(w.labels, label)
	for i := range w.series {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		w.series[i] = append(w.series[i], v)
	}
}

func (w *Window) Reset() {
	w.labels = nil
	for i := range w.series {
		w.series[i] = nil
	}
}

// State is a detached copy of a window.
type State struct {
	Title  string      `json:"title"`
	Unit   string      `json:"unit"`
	Max    float64     `json:"max"`
	Names  []string    `json:"names"`
	Labels []string    `json:"labels"`
	Series [][]float64 `json:"series"`
}

func (w *Window) State() State {
	st := State{
		Title:  w.Title,
		Unit:   w.Unit,
		Max:    w.Max,
		Names:  append([]string(nil), w.Names...),
		Labels: append([]string(nil), w.labels...),
		Series: make([][]float64, len(w.series)),
	}
	for i, s := range w.series {
		st.Series[i] = append([]float64(nil), s...)
	}
	return st
}
