package hazard

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/calib"
	"github.com/meenmo/curvecal/cmd/curvecal/internal/report"
	"github.com/meenmo/curvecal/config"
	"github.com/meenmo/curvecal/credit"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/utils"
)

const defaultYieldCurve = "discount"

// CreditOutput is the bootstrap result of one reference entity.
type CreditOutput struct {
	Name         string    `json:"name" yaml:"name"`
	Tenors       []string  `json:"tenors,omitempty" yaml:"tenors,omitempty"`
	Times        []float64 `json:"times,omitempty" yaml:"times,omitempty"`
	HazardRates  []float64 `json:"hazard_rates,omitempty" yaml:"hazard_rates,omitempty"`
	Survival     []float64 `json:"survival,omitempty" yaml:"survival,omitempty"`
	RepricedPV   []float64 `json:"repriced_pv,omitempty" yaml:"repriced_pv,omitempty"`
	ParSpreadBps []float64 `json:"par_spread_bps,omitempty" yaml:"par_spread_bps,omitempty"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Output is the JSON written to stdout.
type Output struct {
	ValuationDate string         `json:"valuation_date,omitempty" yaml:"valuation_date,omitempty"`
	Credits       []CreditOutput `json:"credits,omitempty" yaml:"credits,omitempty"`
	Error         string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hazard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML job configuration path")
	logLevel := fs.String("log-level", "", "log level override (debug, info, warn, error)")
	format := fs.String("format", report.FormatJSON, "output format (json, yaml)")
	quiet := fs.Bool("quiet", false, "Hide the progress bar")
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

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = progressBar(len(conf.Credits), stderr)
	}
	output, err := Bootstrap(context.Background(), conf, logger, bar)
	if err != nil {
		logger.Error("bootstrap failed", zap.String("op", "hazard"), zap.Error(err))
		return writeError(stdout, outFormat, err.Error())
	}

	if err := report.Write(stdout, outFormat, output); err != nil {
		logger.Error("failed to write output", zap.String("op", "hazard"), zap.Error(err))
		return 1
	}
	for _, c := range output.Credits {
		if c.Error != "" {
			return 1
		}
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  curvecal hazard -config job.yml [-log-level debug] [-format yaml] [-quiet]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bootstrap a hazard-rate curve per configured credit, output JSON or YAML to stdout.")
}

func writeError(stdout io.Writer, format, msg string) int {
	_ = report.Write(stdout, format, Output{Error: msg})
	return 1
}

func progressBar(length int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		length,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// Bootstrap calibrates every configured credit. A failing credit is
// reported in its own Error field; configuration problems fail the run.
// bar may be nil.
func Bootstrap(ctx context.Context, conf *config.Configuration, logger *zap.Logger, bar *progressbar.ProgressBar) (*Output, error) {
	if len(conf.Credits) == 0 {
		return nil, fmt.Errorf("no credits configured")
	}
	valuation, err := utils.DateParser(conf.ValuationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid valuationDate: %w", err)
	}
	cal, err := buildCalendar(conf.Calendar)
	if err != nil {
		return nil, err
	}
	logger.Debug("calendar",
		zap.String("op", "hazard"),
		zap.String("calendar", string(cal.ID())),
		zap.Strings("holidays", cal.Holidays()))
	market, ycName, err := buildMarket(conf.YieldCurve)
	if err != nil {
		return nil, err
	}
	bc, err := conf.ToBootstrapConfig()
	if err != nil {
		return nil, err
	}
	valuator := credit.AnalyticValuator{}
	boot, err := credit.NewHazardRateBootstrap(valuator, credit.WithConfig(bc), credit.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	output := &Output{ValuationDate: valuation.Format(utils.DateLayout)}
	for _, cc := range conf.Credits {
		if bar != nil {
			bar.Describe(fmt.Sprintf("Bootstrapping %v\t", cc.Name))
		}
		co, err := bootstrapCredit(ctx, boot, valuator, market, ycName, valuation, cal, conf.DayCount, cc)
		if err != nil {
			logger.Warn("credit failed",
				zap.String("op", "hazard"),
				zap.String("curve", cc.Name),
				zap.Error(err),
			)
			co = CreditOutput{Name: cc.Name, Tenors: cc.Tenors, Error: err.Error()}
		}
		output.Credits = append(output.Credits, co)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return output, nil
}

func bootstrapCredit(ctx context.Context, boot *credit.HazardRateBootstrap, valuator credit.AnalyticValuator, market calib.CurveProvider, ycName string, valuation time.Time, cal *calendar.Calendar, dayCount string, cc config.CreditConfig) (CreditOutput, error) {
	times, err := credit.TenorTimes(valuation, cc.Tenors, cal, dayCount)
	if err != nil {
		return CreditOutput{}, err
	}
	template := credit.CreditDefaultSwap{
		Name:                  cc.Name,
		RecoveryRate:          cc.Recovery,
		Notional:              cc.Notional,
		PaymentFrequency:      cc.PaymentFrequency,
		IncludeAccruedPremium: cc.IncludeAccruedPremium,
		YieldCurve:            ycName,
		HazardCurve:           cc.Name,
	}
	hc, err := boot.Calibrate(ctx, market, template, times, cc.Spreads)
	if err != nil {
		return CreditOutput{}, err
	}

	merged := market.Copy()
	merged.SetAll(hc)
	pt := boot.Config().PriceType
	co := CreditOutput{Name: cc.Name, Tenors: cc.Tenors, Times: times, HazardRates: hc.Rates()}
	for i, t := range times {
		cds := template.WithMaturity(t).WithSpread(cc.Spreads[i])
		pv, err := valuator.Price(cds, merged, pt)
		if err != nil {
			return CreditOutput{}, err
		}
		par, err := valuator.ParSpread(cds, merged, pt)
		if err != nil {
			return CreditOutput{}, err
		}
		co.Survival = append(co.Survival, hc.SurvivalProbability(t))
		co.RepricedPV = append(co.RepricedPV, pv)
		co.ParSpreadBps = append(co.ParSpreadBps, utils.RoundTo(par, 8))
	}
	return co, nil
}

func buildCalendar(cc config.CalendarConfig) (*calendar.Calendar, error) {
	holidays := make([]time.Time, 0, len(cc.Holidays))
	for _, h := range cc.Holidays {
		d, err := utils.DateParser(h)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday: %w", err)
		}
		holidays = append(holidays, d)
	}
	id := calendar.CalendarID(strings.ToUpper(strings.TrimSpace(cc.ID)))
	if id == "" {
		id = calendar.WeekendsOnly
	}
	return calendar.New(id, holidays...), nil
}

func buildMarket(yc config.YieldCurveConfig) (calib.CurveProvider, string, error) {
	name := yc.Name
	if name == "" {
		name = defaultYieldCurve
	}
	c, err := curve.NewYieldCurve(name, yc.Times, yc.Zeros)
	if err != nil {
		return nil, "", fmt.Errorf("yieldCurve: %w", err)
	}
	return curve.NewProvider(c), name, nil
}
