// Package calib implements simultaneous multi-curve calibration: building-block
// indexing of a shared parameter vector, the pricing-error function and its
// Jacobian evaluated by a vector root finder, and the unit-by-unit Repository
// that accumulates the inverse-Jacobian block bundle.
//
// Pricing itself is delegated to the collaborator interfaces declared here.
package calib

// PriceType selects clean or dirty valuation for instruments that accrue.
type PriceType int

const (
	// PriceClean excludes accrued premium.
	PriceClean PriceType = iota
	// PriceDirty includes accrued premium.
	PriceDirty
)

func (p PriceType) String() string {
	switch p {
	case PriceClean:
		return "clean"
	case PriceDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Instrument is a calibration instrument. The engine treats instruments as
// opaque; only valuators and sensitivity calculators inspect them.
type Instrument interface {
	// Label identifies the instrument in error messages and logs.
	Label() string
}

// Curve is a named, immutable curve value.
type Curve interface {
	Name() string
	NumberOfParameters() int
}

// ParametricCurve is a Curve that can be rebuilt from a modified parameter
// vector. Finite-difference sensitivities bump through this interface.
type ParametricCurve interface {
	Curve
	Parameters() []float64
	WithParameters(params []float64) (Curve, error)
}

// CurveGenerator materializes a curve from its parameter slice. Generate must
// be a pure function of its inputs.
type CurveGenerator interface {
	Generate(name string, params []float64) (Curve, error)
}

// FinalizingGenerator is implemented by generators that adapt themselves to
// the instruments they are calibrated against (e.g. node times taken from
// instrument maturities).
type FinalizingGenerator interface {
	CurveGenerator
	FinalGenerator(instruments []Instrument) (CurveGenerator, error)
}

// CurveProvider is the known-curve bundle: curves not being calibrated plus,
// during evaluation, the candidate curves.
type CurveProvider interface {
	// Copy returns a provider that can be mutated without affecting the receiver.
	Copy() CurveProvider
	// SetAll adds or replaces curves by name.
	SetAll(curves ...Curve)
	Curve(name string) (Curve, error)
	// Names lists curve names in insertion order.
	Names() []string
	NumberOfParameters(name string) (int, error)
}

// InstrumentValuator returns the calibration value of an instrument: the
// pricing error whose zero defines a calibrated curve set.
type InstrumentValuator interface {
	Price(inst Instrument, curves CurveProvider, pt PriceType) (float64, error)
}

// ParameterSensitivityCalculator returns the derivative of an instrument's
// calibration value with respect to the parameters of curveNames,
// concatenated in the order of curveNames.
type ParameterSensitivityCalculator interface {
	Sensitivity(inst Instrument, curveNames []string, curves CurveProvider) ([]float64, error)
}
