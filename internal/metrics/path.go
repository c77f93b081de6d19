package metrics

import "github.com/san-kum/fiberlight/internal/optics"

// mean is the running average shared by the simple metrics below.
type mean struct {
	name    string
	sum     float64
	samples int
	pick    func(optics.Stats) (float64, bool)
}

func (m *mean) Name() string { return m.name }

func (m *mean) Observe(st optics.Stats) {
	v, ok := m.pick(st)
	if !ok {
		return
	}
	m.sum += v
	m.samples++
}

func (m *mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *mean) Reset() {
	m.sum = 0
	m.samples = 0
}

// NewMeanBounces averages the wall reflections per path.
func NewMeanBounces() Metric {
	return &mean{name: "mean_bounces", pick: func(st optics.Stats) (float64, bool) {
		return float64(st.WallBounces), true
	}}
}

// NewMeanPathLength averages the drawn path length.
func NewMeanPathLength() Metric {
	return &mean{name: "mean_path_length", pick: func(st optics.Stats) (float64, bool) {
		return st.Length, true
	}}
}

// NewMeanEfficiency averages efficiency over transmitted paths only.
func NewMeanEfficiency() Metric {
	return &mean{name: "mean_efficiency", pick: func(st optics.Stats) (float64, bool) {
		return st.Efficiency, st.Transmitted
	}}
}

// NewMeanIntensity averages the intensity at the end of each path.
func NewMeanIntensity() Metric {
	return &mean{name: "mean_intensity", pick: func(st optics.Stats) (float64, bool) {
		return st.FinalIntensity, true
	}}
}
