package rates

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/cmd/curvecal/internal/report"
	"github.com/meenmo/curvecal/config"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/instrument"
)

// CurveOutput is one calibrated curve.
type CurveOutput struct {
	Name  string    `json:"name" yaml:"name"`
	Times []float64 `json:"times" yaml:"times"`
	Zeros []float64 `json:"zeros" yaml:"zeros"`
}

// UnitOutput summarizes the solve of one unit.
type UnitOutput struct {
	Curves     []string `json:"curves" yaml:"curves"`
	Iterations int      `json:"iterations" yaml:"iterations"`
	Residual   float64  `json:"residual" yaml:"residual"`
}

// Output is the JSON written to stdout.
type Output struct {
	Curves []CurveOutput `json:"curves,omitempty" yaml:"curves,omitempty"`
	Units  []UnitOutput  `json:"units,omitempty" yaml:"units,omitempty"`
	Blocks []string      `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rates", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML job configuration path")
	logLevel := fs.String("log-level", "", "log level override (debug, info, warn, error)")
	format := fs.String("format", report.FormatJSON, "output format (json, yaml)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}
	if strings.TrimSpace(*configPath) == "" {
		usage(stderr)
		return 2
	}
	outFormat, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	conf, err := config.LoadConfiguration(*configPath)
	if err != nil {
		return writeError(stdout, outFormat, fmt.Sprintf("failed to load configuration: %v", err))
	}
	if err := conf.Validate(); err != nil {
		return writeError(stdout, outFormat, fmt.Sprintf("invalid configuration: %v", err))
	}
	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		return writeError(stdout, outFormat, fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	output, err := Calibrate(context.Background(), conf, logger)
	if err != nil {
		logger.Error("calibration failed", zap.String("op", "rates"), zap.Error(err))
		return writeError(stdout, outFormat, err.Error())
	}

	if err := report.Write(stdout, outFormat, output); err != nil {
		logger.Error("failed to write output", zap.String("op", "rates"), zap.Error(err))
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  curvecal rates -config job.yml [-log-level debug] [-format yaml]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Calibrate the configured units in order, output JSON or YAML to stdout.")
}

func writeError(stdout io.Writer, format, msg string) int {
	_ = report.Write(stdout, format, Output{Error: msg})
	return 1
}

// Calibrate runs the configured units through a calib.Repository.
func Calibrate(ctx context.Context, conf *config.Configuration, logger *zap.Logger) (*Output, error) {
	units, err := BuildUnits(conf.Units)
	if err != nil {
		return nil, err
	}
	rootFinder, err := conf.ToRootFinder(logger)
	if err != nil {
		return nil, err
	}
	valuator := instrument.ParRateValuator{}
	repo, err := calib.NewRepository(rootFinder, valuator,
		instrument.FiniteDifferenceSensitivity{Valuator: valuator},
		calib.WithLogger(logger),
		calib.WithParallelJacobian(conf.Solver.ParallelJacobian),
	)
	if err != nil {
		return nil, err
	}

	curves, blocks, report, err := repo.CalibrateWithReport(ctx, units, curve.NewProvider(), nil)
	if err != nil {
		return nil, err
	}

	output := &Output{Blocks: blocks.Names()}
	for _, u := range report {
		output.Units = append(output.Units, UnitOutput{Curves: u.Curves, Iterations: u.Iterations, Residual: u.Residual})
		for _, name := range u.Curves {
			c, err := curves.Curve(name)
			if err != nil {
				return nil, err
			}
			yc, ok := c.(*curve.YieldCurve)
			if !ok {
				return nil, fmt.Errorf("curve %q is %T, not a yield curve", name, c)
			}
			output.Curves = append(output.Curves, CurveOutput{Name: name, Times: yc.Times(), Zeros: yc.Parameters()})
		}
	}
	return output, nil
}

// BuildUnits turns unit configurations into calibration units. Every curve
// gets one node per instrument, at the instrument maturity.
func BuildUnits(configs []config.UnitConfig) ([]*calib.MultiCurveBundle, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no units configured")
	}
	units := make([]*calib.MultiCurveBundle, 0, len(configs))
	for i, uc := range configs {
		bundles := make([]*calib.SingleCurveBundle, 0, len(uc.Curves))
		for _, cc := range uc.Curves {
			b, err := buildCurve(cc)
			if err != nil {
				return nil, fmt.Errorf("unit %d: %w", i, err)
			}
			bundles = append(bundles, b)
		}
		unit, err := calib.NewMultiCurveBundle(bundles...)
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
		units = append(units, unit)
	}
	return units, nil
}

func buildCurve(cc config.CurveConfig) (*calib.SingleCurveBundle, error) {
	instruments := make([]calib.Instrument, 0, len(cc.Instruments))
	for j, ic := range cc.Instruments {
		inst, err := buildInstrument(cc.Name, ic)
		if err != nil {
			return nil, fmt.Errorf("curve %q instrument %d: %w", cc.Name, j, err)
		}
		instruments = append(instruments, inst)
	}
	start := cc.StartingPoint
	if len(start) == 0 {
		start = make([]float64, len(instruments))
		for j := range start {
			start[j] = config.DefaultStartingRate
		}
	}
	return calib.NewSingleCurveBundle(cc.Name, instruments, start, curve.ZeroCurveGenerator{})
}

func buildInstrument(curveName string, ic config.InstrumentConfig) (calib.Instrument, error) {
	discount := ic.DiscountCurve
	if discount == "" {
		discount = curveName
	}
	forward := ic.ForwardCurve
	if forward == "" {
		forward = curveName
	}
	switch strings.ToLower(strings.TrimSpace(ic.Type)) {
	case "deposit", "dep":
		return instrument.Deposit{Name: ic.Name, Start: ic.Start, End: ic.End, Rate: ic.Rate, Curve: forward}, nil
	case "fra":
		return instrument.FRA{Name: ic.Name, Start: ic.Start, End: ic.End, Rate: ic.Rate, ForwardCurve: forward}, nil
	case "swap", "irs":
		return instrument.Swap{
			Name:           ic.Name,
			Tenor:          ic.Tenor,
			FixedFrequency: ic.FixedFrequency,
			FloatFrequency: ic.FloatFrequency,
			Rate:           ic.Rate,
			DiscountCurve:  discount,
			ForwardCurve:   forward,
		}, nil
	default:
		return nil, fmt.Errorf("unknown instrument type %q", ic.Type)
	}
}
