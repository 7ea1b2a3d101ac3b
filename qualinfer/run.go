// Package qualinfer loads programs and runs qualifier checking or
// inference over them.
package qualinfer

import (
	"context"
	"fmt"

	"github.com/cottand/qualinfer/frontend/annotator"
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/checkers/interning"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/problem"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/cottand/qualinfer/frontend/typefactory"
	"github.com/cottand/qualinfer/frontend/visitor"
	"github.com/cottand/qualinfer/internal/log"
)

var runLogger = log.DefaultLogger.With("section", "run")

type Settings struct {
	Mode typefactory.Mode
	// Hierarchy defaults to the interning hierarchy
	Hierarchy qual.Hierarchy
	// Rules default to the interning rules when Hierarchy is not set,
	// and to no rules otherwise
	Rules    visitor.Rules
	Degraded bool
}

type Result struct {
	Diagnostics *qerr.Errors
	// Problem is nil in checking mode
	Problem *problem.Problem
}

func (s Settings) resolve() (Settings, error) {
	if s.Hierarchy == nil {
		h, err := interning.NewHierarchy()
		if err != nil {
			return s, fmt.Errorf("interning hierarchy: %w", err)
		}
		s.Hierarchy = h
		if s.Rules == nil {
			s.Rules = interning.Rules{}
		}
	}
	if s.Rules == nil {
		s.Rules = visitor.BaseRules{}
	}
	return s, nil
}

// Run visits every unit of prog in the mode of settings. Each run owns
// its own slot registry and constraint store.
//
// A run that aborts returns the error and no Result.
func Run(ctx context.Context, prog *ast.Program, settings Settings) (Result, error) {
	settings, err := settings.resolve()
	if err != nil {
		return Result{}, err
	}
	literal := typefactory.WithLiteralQualifier(settings.Rules.Literal)

	var (
		f        *typefactory.Factory
		registry *slots.Registry
		store    *constraints.Store
	)
	switch settings.Mode {
	case typefactory.Inference:
		var opts []slots.Option
		if settings.Degraded {
			opts = append(opts, slots.WithDegraded())
		}
		registry = slots.NewRegistry(settings.Hierarchy, opts...)
		store = constraints.NewStore()
		ann, err := annotator.New(registry, store)
		if err != nil {
			return Result{}, fmt.Errorf("annotator: %w", err)
		}
		f = typefactory.NewInference(prog, registry, store, ann, literal)
	default:
		f = typefactory.NewChecking(prog, settings.Hierarchy, literal)
	}

	v := visitor.New(f, settings.Rules)
	runLogger.Info("starting run", "mode", settings.Mode.String(), "hierarchy", settings.Hierarchy.Name(), "units", len(prog.Units))
	for _, unit := range prog.Units {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := qerr.Catch(func() { v.VisitUnit(unit) }); err != nil {
			return Result{}, fmt.Errorf("%s: %w", unit.Name, err)
		}
	}

	result := Result{Diagnostics: v.Diagnostics()}
	if store != nil {
		result.Problem = problem.New(registry, store)
		runLogger.Info("inference done", "run", result.Problem.RunID.String(), "slots", len(result.Problem.Slots), "constraints", store.Summary())
		if dangling := result.Problem.Dangling(); len(dangling) > 0 {
			runLogger.Warn("constraints refer to unregistered slots", "ids", dangling)
		}
	} else {
		runLogger.Info("checking done", "diagnostics", result.Diagnostics)
	}
	return result, nil
}
