package config

import (
	"go.uber.org/zap"

	"github.com/meenmo/curvecal/credit"
	"github.com/meenmo/curvecal/solver"
)

// ToRootFinder builds the configured vector root finder.
func (c *Configuration) ToRootFinder(logger *zap.Logger) (solver.VectorRootFinder, error) {
	method, err := c.methodName()
	if err != nil {
		return nil, err
	}
	opts := []solver.Option{
		solver.WithTolerances(c.Solver.AbsoluteTolerance, c.Solver.RelativeTolerance),
		solver.WithMaxSteps(c.Solver.MaxSteps),
		solver.WithLogger(logger),
	}
	if method == "broyden" {
		return solver.NewBroydenVectorRootFinder(opts...), nil
	}
	return solver.NewNewtonVectorRootFinder(opts...), nil
}

// ToBootstrapConfig converts the hazard section.
func (c *Configuration) ToBootstrapConfig() (credit.BootstrapConfig, error) {
	pt, err := ParsePriceType(c.Hazard.PriceType)
	if err != nil {
		return credit.BootstrapConfig{}, err
	}
	bc := credit.BootstrapConfig{
		BracketMultiplier: c.Hazard.BracketMultiplier,
		MaxIterations:     c.Hazard.MaxIterations,
		Tolerance:         c.Hazard.Tolerance,
		MaxHazardGuess:    c.Hazard.MaxHazardGuess,
		PriceType:         pt,
	}
	if err := bc.Validate(); err != nil {
		return credit.BootstrapConfig{}, err
	}
	return bc, nil
}
