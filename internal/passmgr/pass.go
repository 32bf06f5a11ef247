// Package passmgr implements the ordered pass pipeline over a
// contract's IR, grounded on the original
// Rust PassManager/Pass/AnalysisCache
// (thalir-core/src/analysis/pass.rs, cache.rs).
package passmgr

import (
	"fmt"
	"time"

	"solir/internal/config"
	"solir/internal/ir"
)

// AnalysisID names one of the fixed analyses a Pass can depend on or
// preserve.
type AnalysisID string

const (
	AnalysisControlFlow      AnalysisID = "control-flow"
	AnalysisDominator        AnalysisID = "dominator"
	AnalysisLoop             AnalysisID = "loop"
	AnalysisAlias            AnalysisID = "alias"
	AnalysisDefUse           AnalysisID = "def-use"
	AnalysisLiveness         AnalysisID = "liveness"
	AnalysisReachingDefs     AnalysisID = "reaching-defs"
	AnalysisObfuscation      AnalysisID = "obfuscation"
)

// Pass is one unit of work run over a contract. Analyses that other
// passes depend on are registered separately with RegisterAnalysis and
// referenced by RequiredAnalyses/PreservedAnalyses.
type Pass interface {
	Name() string
	Description() string
	RunOnContract(contract *ir.Contract, mgr *PassManager) error
	RequiredAnalyses() []AnalysisID
	PreservedAnalyses() []AnalysisID
	ModifiesIR() bool
}

// PassStatistics records one pass's wall-clock cost, grounded on the
// original Rust PassStatistics.
type PassStatistics struct {
	Name     string
	Duration time.Duration
}

// AnalysisFunc computes one analysis result for a single function.
// The result is stored as `any`; callers type-assert on retrieval.
type AnalysisFunc func(fn *ir.Function) (any, error)

// PassManager owns the ordered pass list, the per-function analysis
// functions passes may depend on, and the shared analysis cache.
type PassManager struct {
	passes       []Pass
	analyzers    map[AnalysisID]AnalysisFunc
	cache        *AnalysisCache
	statistics   []PassStatistics
	collectStats bool
}

// NewPassManager constructs an empty manager with a default-bounded
// analysis cache.
func NewPassManager() *PassManager {
	return &PassManager{
		analyzers: make(map[AnalysisID]AnalysisFunc),
		cache:     DefaultAnalysisCache(),
	}
}

// NewPassManagerWithBounds constructs an empty manager whose analysis
// cache honors the given byte/entry budget.
func NewPassManagerWithBounds(bounds config.CacheBounds) *PassManager {
	return &PassManager{
		analyzers: make(map[AnalysisID]AnalysisFunc),
		cache:     NewAnalysisCache(bounds.MaxBytes, bounds.MaxEntries),
	}
}

func (m *PassManager) EnableStatistics() { m.collectStats = true }

func (m *PassManager) RegisterPass(p Pass) { m.passes = append(m.passes, p) }

// RegisterAnalysis makes an analysis computable via RequiredAnalyses
// dependencies; fn runs once per function in the contract when the
// analysis is not already cached.
func (m *PassManager) RegisterAnalysis(id AnalysisID, fn AnalysisFunc) {
	m.analyzers[id] = fn
}

// RunAll runs every registered pass in order, computing any missing
// required analyses first and invalidating non-preserved analyses
// whenever a pass reports that it modified the IR.
func (m *PassManager) RunAll(contract *ir.Contract) error {
	for _, pass := range m.passes {
		var start time.Time
		if m.collectStats {
			start = time.Now()
		}

		for _, required := range pass.RequiredAnalyses() {
			if !m.isAnalysisValid(contract.Name, required) {
				if err := m.computeAnalysis(contract, required); err != nil {
					return fmt.Errorf("pass %s: %w", pass.Name(), err)
				}
			}
		}

		if err := pass.RunOnContract(contract, m); err != nil {
			return fmt.Errorf("pass %s: %w", pass.Name(), err)
		}

		if pass.ModifiesIR() {
			m.cache.IncrementGeneration()
			m.invalidateAnalyses(contract.Name, pass.PreservedAnalyses())
		}

		if m.collectStats {
			m.statistics = append(m.statistics, PassStatistics{
				Name:     pass.Name(),
				Duration: time.Since(start),
			})
		}
	}
	return nil
}

// GetAnalysis returns the per-function results for id, computing them
// if not already cached.
func (m *PassManager) GetAnalysis(contract *ir.Contract, id AnalysisID) (map[string]any, error) {
	key := CacheKey{Analysis: id, Target: contract.Name}
	if v, ok := m.cache.Get(key); ok {
		results, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("passmgr: cached value for %s is not an analysis map", id)
		}
		return results, nil
	}
	if err := m.computeAnalysis(contract, id); err != nil {
		return nil, err
	}
	v, _ := m.cache.Get(key)
	return v.(map[string]any), nil
}

// GetFunctionAnalysis returns one function's result from id's map.
func (m *PassManager) GetFunctionAnalysis(contract *ir.Contract, id AnalysisID, functionName string) (any, error) {
	results, err := m.GetAnalysis(contract, id)
	if err != nil {
		return nil, err
	}
	result, ok := results[functionName]
	if !ok {
		return nil, fmt.Errorf("passmgr: analysis %s not found for function %s", id, functionName)
	}
	return result, nil
}

// CacheAnalysis manually injects a precomputed per-function result
// map, bypassing the registered AnalysisFunc.
func (m *PassManager) CacheAnalysis(id AnalysisID, contractName string, result map[string]any) {
	m.cache.Insert(CacheKey{Analysis: id, Target: contractName}, result, estimateSize(result))
}

func (m *PassManager) computeAnalysis(contract *ir.Contract, id AnalysisID) error {
	fn, ok := m.analyzers[id]
	if !ok {
		return fmt.Errorf("passmgr: no analysis registered for %s", id)
	}
	results := make(map[string]any, len(contract.Functions))
	for _, f := range contract.OrderedFunctions() {
		res, err := fn(f)
		if err != nil {
			return fmt.Errorf("analysis %s on %s: %w", id, f.MangledName(), err)
		}
		results[f.MangledName()] = res
	}
	key := CacheKey{Analysis: id, Target: contract.Name}
	m.cache.Insert(key, results, estimateSize(results))
	return nil
}

func (m *PassManager) isAnalysisValid(contractName string, id AnalysisID) bool {
	_, ok := m.cache.Get(CacheKey{Analysis: id, Target: contractName})
	return ok
}

func (m *PassManager) invalidateAnalyses(contractName string, preserved []AnalysisID) {
	keep := make(map[AnalysisID]bool, len(preserved))
	for _, id := range preserved {
		keep[id] = true
	}
	m.cache.Invalidate(func(k CacheKey) bool {
		return k.Target == contractName && !keep[k.Analysis]
	})
}

func estimateSize(results map[string]any) int {
	return 64 + 32*len(results)
}

func (m *PassManager) Statistics() []PassStatistics { return m.statistics }

func (m *PassManager) CacheStatistics() CacheStatistics { return m.cache.Statistics() }

func (m *PassManager) ClearCache() { m.cache.Clear() }

// GetPass returns the first registered pass with the given name, if
// any (a Go-idiomatic stand-in for the original's downcast-by-type
// get_pass/get_pass_mut, since Go passes are distinguished by name
// rather than by concrete type).
func (m *PassManager) GetPass(name string) (Pass, bool) {
	for _, p := range m.passes {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
