package passmgr

import (
	"solir/internal/analysis"
	"solir/internal/ir"
)

// RegisterStandardAnalyses wires every pure analysis in
// internal/analysis into the manager under its AnalysisID, so a Pass
// can declare it in RequiredAnalyses without the caller hand-building
// each one.
func RegisterStandardAnalyses(m *PassManager) {
	m.RegisterAnalysis(AnalysisControlFlow, func(fn *ir.Function) (any, error) {
		return analysis.BuildCFG(fn), nil
	})
	m.RegisterAnalysis(AnalysisDominator, func(fn *ir.Function) (any, error) {
		return analysis.BuildDominatorTree(analysis.BuildCFG(fn)), nil
	})
	m.RegisterAnalysis(AnalysisLoop, func(fn *ir.Function) (any, error) {
		cfg := analysis.BuildCFG(fn)
		return analysis.FindLoops(cfg, analysis.BuildDominatorTree(cfg)), nil
	})
	m.RegisterAnalysis(AnalysisDefUse, func(fn *ir.Function) (any, error) {
		return analysis.BuildDefUseChains(fn), nil
	})
	m.RegisterAnalysis(AnalysisAlias, func(fn *ir.Function) (any, error) {
		return analysis.BuildAliasAnalysis(fn), nil
	})
	m.RegisterAnalysis(AnalysisLiveness, func(fn *ir.Function) (any, error) {
		cfg := analysis.BuildCFG(fn)
		return analysis.ComputeLiveness(cfg, fn, analysis.BuildDefUseChains(fn)), nil
	})
	m.RegisterAnalysis(AnalysisReachingDefs, func(fn *ir.Function) (any, error) {
		return analysis.ComputeReachingDefinitions(analysis.BuildCFG(fn), fn), nil
	})
}
