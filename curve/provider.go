package curve

import (
	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/errs"
)

// Provider is a name-keyed set of immutable curves. Copy is cheap because
// curves are shared, never modified.
type Provider struct {
	order  []string
	curves map[string]calib.Curve
}

// NewProvider returns a provider holding curves.
func NewProvider(curves ...calib.Curve) *Provider {
	p := &Provider{curves: make(map[string]calib.Curve, len(curves))}
	p.SetAll(curves...)
	return p
}

// Copy implements calib.CurveProvider.
func (p *Provider) Copy() calib.CurveProvider {
	cp := &Provider{
		order:  make([]string, len(p.order)),
		curves: make(map[string]calib.Curve, len(p.curves)),
	}
	copy(cp.order, p.order)
	for k, v := range p.curves {
		cp.curves[k] = v
	}
	return cp
}

// SetAll adds or replaces curves by name. Nil curves are ignored.
func (p *Provider) SetAll(curves ...calib.Curve) {
	for _, c := range curves {
		if c == nil {
			continue
		}
		name := c.Name()
		if _, ok := p.curves[name]; !ok {
			p.order = append(p.order, name)
		}
		p.curves[name] = c
	}
}

// Curve returns the named curve.
func (p *Provider) Curve(name string) (calib.Curve, error) {
	c, ok := p.curves[name]
	if !ok {
		return nil, errs.NotFound("curve %q in provider", name)
	}
	return c, nil
}

// Names returns curve names in insertion order.
func (p *Provider) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// NumberOfParameters returns the parameter count of the named curve.
func (p *Provider) NumberOfParameters(name string) (int, error) {
	c, err := p.Curve(name)
	if err != nil {
		return 0, err
	}
	return c.NumberOfParameters(), nil
}

// Lookup returns the named curve as a Discounter.
func Lookup(curves calib.CurveProvider, name string) (Discounter, error) {
	c, err := curves.Curve(name)
	if err != nil {
		return nil, err
	}
	d, ok := c.(Discounter)
	if !ok {
		return nil, errs.InvalidArgument("curve %q does not provide discount factors", name)
	}
	return d, nil
}
