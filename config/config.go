// Package config defines the calibration job configuration and loads it
// from YAML. Numerical settings default to DefaultConfig values; job data
// (curves, instruments, credits) comes only from the file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/credit"
)

// Configuration holds everything a curvecal run needs.
type Configuration struct {
	Solver  SolverConfig  `mapstructure:"solver"`
	Hazard  HazardConfig  `mapstructure:"hazard"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Units are calibrated in order by the rates command.
	Units []UnitConfig `mapstructure:"units"`

	// ValuationDate, Calendar and DayCount turn credit tenors into times.
	ValuationDate string           `mapstructure:"valuationDate"`
	Calendar      CalendarConfig   `mapstructure:"calendar"`
	DayCount      string           `mapstructure:"dayCount"`
	YieldCurve    YieldCurveConfig `mapstructure:"yieldCurve"`
	Credits       []CreditConfig   `mapstructure:"credits"`
}

// SolverConfig configures the vector root finder.
type SolverConfig struct {
	AbsoluteTolerance float64 `mapstructure:"absoluteTolerance"`
	RelativeTolerance float64 `mapstructure:"relativeTolerance"`
	MaxSteps          int     `mapstructure:"maxSteps"`
	Method            string  `mapstructure:"method"` // newton, broyden
	ParallelJacobian  bool    `mapstructure:"parallelJacobian"`
}

// HazardConfig configures the hazard-rate bootstrap.
type HazardConfig struct {
	BracketMultiplier float64 `mapstructure:"bracketMultiplier"`
	MaxIterations     int     `mapstructure:"maxIterations"`
	Tolerance         float64 `mapstructure:"tolerance"`
	MaxHazardGuess    float64 `mapstructure:"maxHazardGuess"`
	PriceType         string  `mapstructure:"priceType"` // clean, dirty
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`      // debug, info, warn, error
	Format     string `mapstructure:"format"`     // json, console
	OutputFile string `mapstructure:"outputFile"` // optional file output
}

// UnitConfig is one simultaneously calibrated set of curves.
type UnitConfig struct {
	Curves []CurveConfig `mapstructure:"curves"`
}

// CurveConfig is one curve and the instruments it is calibrated to. Node
// times are the instrument maturities. StartingPoint defaults to
// DefaultStartingRate for every node.
type CurveConfig struct {
	Name          string             `mapstructure:"name"`
	Instruments   []InstrumentConfig `mapstructure:"instruments"`
	StartingPoint []float64          `mapstructure:"startingPoint"`
}

// InstrumentConfig describes a deposit, FRA or swap. Times are in years.
type InstrumentConfig struct {
	Type           string  `mapstructure:"type"` // deposit, fra, swap
	Name           string  `mapstructure:"name"`
	Start          float64 `mapstructure:"start"`
	End            float64 `mapstructure:"end"`
	Tenor          float64 `mapstructure:"tenor"`
	Rate           float64 `mapstructure:"rate"`
	FixedFrequency int     `mapstructure:"fixedFrequency"`
	FloatFrequency int     `mapstructure:"floatFrequency"`
	// DiscountCurve defaults to the curve being calibrated.
	DiscountCurve string `mapstructure:"discountCurve"`
	// ForwardCurve defaults to the curve being calibrated.
	ForwardCurve string `mapstructure:"forwardCurve"`
}

// CalendarConfig lists the holidays used for tenor date adjustment.
type CalendarConfig struct {
	ID       string   `mapstructure:"id"`
	Holidays []string `mapstructure:"holidays"` // YYYY-MM-DD
}

// YieldCurveConfig is the discount curve of the hazard command, given as
// zero-rate nodes.
type YieldCurveConfig struct {
	Name  string    `mapstructure:"name"`
	Times []float64 `mapstructure:"times"`
	Zeros []float64 `mapstructure:"zeros"`
}

// CreditConfig is one reference entity's par spread curve.
type CreditConfig struct {
	Name                  string    `mapstructure:"name"`
	Recovery              float64   `mapstructure:"recovery"`
	Tenors                []string  `mapstructure:"tenors"`
	Spreads               []float64 `mapstructure:"spreads"` // bps
	PaymentFrequency      int       `mapstructure:"paymentFrequency"`
	IncludeAccruedPremium bool      `mapstructure:"includeAccruedPremium"`
	Notional              float64   `mapstructure:"notional"`
}

// DefaultStartingRate is the initial zero rate of every curve node.
const DefaultStartingRate = 0.01

// DefaultConfig provides production-ready default values.
var DefaultConfig = Configuration{
	Solver: SolverConfig{
		AbsoluteTolerance: 1e-10,
		RelativeTolerance: 1e-10,
		MaxSteps:          100,
		Method:            "newton",
	},
	Hazard: HazardConfig{
		BracketMultiplier: 0.5,
		MaxIterations:     100,
		Tolerance:         1e-15,
		MaxHazardGuess:    0.90,
		PriceType:         "clean",
	},
	Logging: LoggingConfig{
		Level:  "info",
		Format: "json",
	},
	DayCount: "ACT/365F",
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig
	v.SetDefault("solver.absoluteTolerance", d.Solver.AbsoluteTolerance)
	v.SetDefault("solver.relativeTolerance", d.Solver.RelativeTolerance)
	v.SetDefault("solver.maxSteps", d.Solver.MaxSteps)
	v.SetDefault("solver.method", d.Solver.Method)
	v.SetDefault("solver.parallelJacobian", d.Solver.ParallelJacobian)
	v.SetDefault("hazard.bracketMultiplier", d.Hazard.BracketMultiplier)
	v.SetDefault("hazard.maxIterations", d.Hazard.MaxIterations)
	v.SetDefault("hazard.tolerance", d.Hazard.Tolerance)
	v.SetDefault("hazard.maxHazardGuess", d.Hazard.MaxHazardGuess)
	v.SetDefault("hazard.priceType", d.Hazard.PriceType)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("dayCount", d.DayCount)
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix("CURVECAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// Validate reports every invalid numerical setting.
func (c *Configuration) Validate() error {
	var err error
	s := c.Solver
	if !(s.AbsoluteTolerance > 0) {
		err = multierr.Append(err, fmt.Errorf("solver.absoluteTolerance must be positive, got %v", s.AbsoluteTolerance))
	}
	if s.RelativeTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("solver.relativeTolerance must not be negative, got %v", s.RelativeTolerance))
	}
	if s.MaxSteps <= 0 {
		err = multierr.Append(err, fmt.Errorf("solver.maxSteps must be positive, got %d", s.MaxSteps))
	}
	if _, e := c.methodName(); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := ParsePriceType(c.Hazard.PriceType); e != nil {
		err = multierr.Append(err, e)
	}
	bc := credit.BootstrapConfig{
		BracketMultiplier: c.Hazard.BracketMultiplier,
		MaxIterations:     c.Hazard.MaxIterations,
		Tolerance:         c.Hazard.Tolerance,
		MaxHazardGuess:    c.Hazard.MaxHazardGuess,
	}
	for _, e := range multierr.Errors(bc.Validate()) {
		err = multierr.Append(err, fmt.Errorf("hazard: %w", e))
	}
	return err
}

func (c *Configuration) methodName() (string, error) {
	m := strings.ToLower(strings.TrimSpace(c.Solver.Method))
	switch m {
	case "", "newton":
		return "newton", nil
	case "broyden":
		return "broyden", nil
	default:
		return "", fmt.Errorf("solver.method must be newton or broyden, got %q", c.Solver.Method)
	}
}

// ParsePriceType maps "clean" and "dirty" to calib.PriceType. Empty means clean.
func ParsePriceType(s string) (calib.PriceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clean":
		return calib.PriceClean, nil
	case "dirty":
		return calib.PriceDirty, nil
	default:
		return calib.PriceClean, fmt.Errorf("hazard.priceType must be clean or dirty, got %q", s)
	}
}
