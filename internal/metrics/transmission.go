package metrics

import "github.com/san-kum/fiberlight/internal/optics"

// Transmission is the fraction of paths that leave through the far end face.
type Transmission struct {
	name        string
	transmitted int
	samples     int
}

func NewTransmission() *Transmission {
	return &Transmission{name: "transmission"}
}

func (m *Transmission) Name() string { return m.name }

func (m *Transmission) Observe(st optics.Stats) {
	m.samples++
	if st.Transmitted {
		m.transmitted++
	}
}

func (m *Transmission) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.transmitted) / float64(m.samples)
}

func (m *Transmission) Reset() {
	m.transmitted = 0
	m.samples = 0
}

// Guided is the fraction of paths that never leak through a wall, rated
// EXCELLENT or MARGINAL.
type Guided struct {
	name    string
	guided  int
	samples int
}

func NewGuided() *Guided {
	return &Guided{name: "guided"}
}

func (m *Guided) Name() string { return m.name }

func (m *Guided) Observe(st optics.Stats) {
	m.samples++
	if st.Quality != optics.QualityPoor {
		m.guided++
	}
}

func (m *Guided) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.guided) / float64(m.samples)
}

func (m *Guided) Reset() {
	m.guided = 0
	m.samples = 0
}
