package optics

import (
	"fmt"
	"math"

	"github.com/san-kum/fiberlight/internal/fiber"
	"github.com/san-kum/fiberlight/internal/geom"
)

// AngleEpsilon is the tolerance (radians) applied when comparing an
// incidence angle against a critical angle. Angles within it of the
// critical angle count as total internal reflection.
const AngleEpsilon = 1e-9

const (
	DefaultMaxBounces         = 48
	DefaultTransmissionFactor = 0.96
	DefaultMinIntensity       = 0.02
)

// Config holds the tracer constants.
type Config struct {
	MaxBounces         int
	TransmissionFactor float64 // intensity multiplier per refraction, 0 < f < 1
	MinIntensity       float64 // absorption threshold
	ReflectionLoss     float64 // fraction lost per reflection, usually 0
}

func DefaultConfig() Config {
	return Config{
		MaxBounces:         DefaultMaxBounces,
		TransmissionFactor: DefaultTransmissionFactor,
		MinIntensity:       DefaultMinIntensity,
		ReflectionLoss:     0,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.MaxBounces <= 0 {
		return fmt.Errorf("%w: max bounces must be positive, got %d", ErrInvalidConfig, c.MaxBounces)
	}
	if !(c.TransmissionFactor > 0 && c.TransmissionFactor < 1) {
		return fmt.Errorf("%w: transmission factor must be in (0, 1), got %f", ErrInvalidConfig, c.TransmissionFactor)
	}
	if !(c.MinIntensity >= 0 && c.MinIntensity < 1) {
		return fmt.Errorf("%w: min intensity must be in [0, 1), got %f", ErrInvalidConfig, c.MinIntensity)
	}
	if !(c.ReflectionLoss >= 0 && c.ReflectionLoss < 1) {
		return fmt.Errorf("%w: reflection loss must be in [0, 1), got %f", ErrInvalidConfig, c.ReflectionLoss)
	}
	return nil
}

// Tracer computes ray paths. It holds only its configuration.
type Tracer struct {
	cfg Config
}

func New(cfg Config) (*Tracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracer{cfg: cfg}, nil
}

// Config returns the tracer configuration.
func (t *Tracer) Config() Config { return t.cfg }

// Classify applies the inclusive total internal reflection rule.
func Classify(incidence, critical float64) Event {
	if incidence >= critical-AngleEpsilon {
		return Reflect
	}
	return Refract
}

// Trace walks ray through g starting in segment 0.
func (t *Tracer) Trace(g *fiber.Geometry, ray Ray) Path {
	path := Path{Origin: ray.Origin, Vertices: make([]PathVertex, 0, 8)}

	seg := 0
	p, d, intensity := ray.Origin, ray.Direction, ray.Intensity

	if intensity < t.cfg.MinIntensity {
		path.Vertices = append(path.Vertices, PathVertex{
			Position:  p,
			Event:     Absorbed,
			Intensity: intensity,
			Direction: d,
		})
		return path
	}

	for bounces := 0; ; bounces++ {
		if bounces >= t.cfg.MaxBounces {
			path.Vertices = append(path.Vertices, PathVertex{
				Position:  p,
				Segment:   seg,
				Event:     Absorbed,
				Intensity: intensity,
				Direction: d,
			})
			return path
		}

		b, dist, ok := nearestBoundary(g.Boundaries(seg), p, d)
		if !ok {
			path.Vertices = append(path.Vertices, PathVertex{
				Position:  p,
				Segment:   seg,
				Event:     Absorbed,
				Intensity: intensity,
				Direction: d,
			})
			return path
		}

		hit := p.Add(d.Scale(dist))
		n1 := g.Segment(seg).CoreIndex
		theta := math.Acos(clamp(d.Dot(b.Normal), 0, 1))

		critical := fiber.CriticalAngle(n1, b.OuterIndex)
		if b.Kind == fiber.BoundaryWall {
			critical = g.Segment(seg).CriticalAngle()
		}

		v := PathVertex{
			Position:     hit,
			Segment:      seg,
			Boundary:     b.Kind,
			IncidenceDeg: theta * 180 / math.Pi,
		}

		if Classify(theta, critical) == Reflect {
			d = d.Reflect(b.Normal).Normalize()
			intensity *= 1 - t.cfg.ReflectionLoss
			v.Event = Reflect
		} else {
			d = refract(d, b.Normal, n1/b.OuterIndex)
			intensity *= t.cfg.TransmissionFactor
			if b.Neighbor < 0 {
				v.Event = Exit
				v.Intensity = intensity
				v.Direction = d
				path.Vertices = append(path.Vertices, v)
				return path
			}
			v.Event = Refract
			seg = b.Neighbor
		}

		v.Intensity = intensity
		v.Direction = d
		if intensity < t.cfg.MinIntensity {
			v.Event = Absorbed
			path.Vertices = append(path.Vertices, v)
			return path
		}

		path.Vertices = append(path.Vertices, v)
		p = hit
	}
}

// nearestBoundary returns the first boundary line the ray crosses while
// moving outward, and the distance to it.
func nearestBoundary(bs [4]fiber.Boundary, p, d geom.Vec2) (fiber.Boundary, float64, bool) {
	best := math.Inf(1)
	var hit fiber.Boundary
	found := false

	for _, b := range bs {
		den := d.Dot(b.Normal)
		if den <= 1e-12 {
			continue
		}
		t := b.Point.Sub(p).Dot(b.Normal) / den
		if t < -fiber.Epsilon {
			continue
		}
		t = math.Max(t, 0)
		if t < best {
			best = t
			hit = b
			found = true
		}
	}
	return hit, best, found
}

// refract applies Snell's law. n is the outward unit normal (d·n > 0) and
// eta the ratio n1/n2.
func refract(d, n geom.Vec2, eta float64) geom.Vec2 {
	cosI := clamp(d.Dot(n), 0, 1)
	sin2T := eta * eta * (1 - cosI*cosI)
	cosT := math.Sqrt(math.Max(0, 1-sin2T))
	return d.Scale(eta).Add(n.Scale(cosT - eta*cosI)).Normalize()
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
