package sequence

import "github.com/tanema/gween/ease"

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func easeFunc(kind string) ease.TweenFunc {
	switch kind {
	case "smooth":
		return ease.InOutQuad
	case "cubic":
		return ease.InOutCubic
	default:
		return ease.Linear
	}
}

func easeApply(kind string, x float64) float64 {
	return float64(easeFunc(kind)(float32(x), 0, 1, 1))
}

// Eval returns the envelope at time t, holding the end values outside the
// keyed range. An empty envelope is 0.
func (e Envelope) Eval(t float64) float64 {
	n := len(e.Keys)
	if n == 0 {
		return 0
	}
	if t <= e.Keys[0].T {
		return e.Keys[0].V
	}
	if t >= e.Keys[n-1].T {
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e.Keys[i], e.Keys[i+1]
		if t < a.T || t > b.T {
			continue
		}
		den := b.T - a.T
		if den <= 0 {
			return b.V
		}
		u := easeApply(a.Ease, clamp01((t-a.T)/den))
		return a.V + (b.V-a.V)*u
	}
	return e.Keys[n-1].V
}

func (e Envelope) Empty() bool { return len(e.Keys) == 0 }
