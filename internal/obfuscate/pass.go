package obfuscate

import (
	"solir/internal/config"
	"solir/internal/ir"
	"solir/internal/passmgr"
)

// Pass pseudonymizes a contract's names and guard/revert messages in
// place, grounded on the original Rust
// ObfuscationPass (thalir-core/src/obfuscation/pass.rs).
type Pass struct {
	cfg        config.ObfuscationConfig
	obfuscator *NameObfuscator
}

// NewPass constructs the pass with its own NameObfuscator.
func NewPass(cfg config.ObfuscationConfig) *Pass {
	return &Pass{cfg: cfg, obfuscator: New(cfg)}
}

func (p *Pass) Name() string { return "obfuscation" }

func (p *Pass) Description() string {
	return "Privacy-preserving identifier pseudonymization for safe LLM submission"
}

func (p *Pass) ModifiesIR() bool { return true }

func (p *Pass) RequiredAnalyses() []passmgr.AnalysisID { return nil }

// PreservedAnalyses: structural analyses are name-independent, so
// renaming identifiers doesn't invalidate them.
func (p *Pass) PreservedAnalyses() []passmgr.AnalysisID {
	return []passmgr.AnalysisID{
		passmgr.AnalysisControlFlow,
		passmgr.AnalysisDominator,
		passmgr.AnalysisDefUse,
		passmgr.AnalysisAlias,
	}
}

// ExportMapping returns the pass's accumulated reverse mapping.
func (p *Pass) ExportMapping() Mapping { return FromObfuscator(p.obfuscator) }

// RunOnContract rewrites contract.Name, every function name and its
// parameters, storage names, and (when StripErrorMessages is set)
// guard/revert messages, then optionally strips source metadata.
func (p *Pass) RunOnContract(contract *ir.Contract, _ *passmgr.PassManager) error {
	contract.Name = p.obfuscator.ObfuscateContractName(contract.Name)

	p.obfuscateFunctions(contract)
	p.obfuscateStorage(contract)

	if p.cfg.StripMetadata {
		contract.Metadata.SourceFilePath = ""
		contract.Metadata.SourceText = ""
	}

	return nil
}

func (p *Pass) obfuscateFunctions(contract *ir.Contract) {
	newFunctions := make(map[string]*ir.Function, len(contract.Functions))
	newOrder := make([]string, 0, len(contract.FunctionOrder))

	for _, oldName := range contract.FunctionOrder {
		fn := contract.Functions[oldName]
		fn.Signature.Name = p.obfuscator.ObfuscateFunctionName(fn.Signature.Name)
		for i := range fn.Signature.Params {
			fn.Signature.Params[i].Name = ParamName(i)
		}
		p.sanitizeMessages(fn)

		newKey := fn.MangledName()
		newFunctions[newKey] = fn
		newOrder = append(newOrder, newKey)
	}

	contract.Functions = newFunctions
	contract.FunctionOrder = newOrder
}

func (p *Pass) sanitizeMessages(fn *ir.Function) {
	if !p.cfg.StripErrorMessages {
		return
	}
	for _, blk := range fn.Body.Blocks {
		for _, inst := range blk.Instructions {
			switch v := inst.(type) {
			case *ir.Guard:
				v.Message = p.obfuscator.ObfuscateErrorMessage(v.Message)
			}
		}
		if blk.Term.Kind == ir.TermRevert && blk.Term.Message != "" {
			blk.Term.Message = p.obfuscator.ObfuscateErrorMessage(blk.Term.Message)
		}
	}
}

func (p *Pass) obfuscateStorage(contract *ir.Contract) {
	for i := range contract.Storage {
		contract.Storage[i].Name = p.obfuscator.ObfuscateStorageName(contract.Storage[i].Name)
	}
}
