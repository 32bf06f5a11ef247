// SPDX-License-Identifier: Apache-2.0

// Package main implements the solir command-line driver: compile a
// Solidity source file down to textual IR, optionally pseudonymizing
// every identifier, and reverse a vulnerability report's pseudonyms
// back to their originals.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"solir/internal/config"
	"solir/internal/diagnostics"
	"solir/internal/emit"
	"solir/internal/ir"
	"solir/internal/lower"
	"solir/internal/obfuscate"
	"solir/internal/passmgr"
	"solir/internal/solparse"
	"solir/internal/srcreg"
	"solir/internal/vulnmap"
)

var cli struct {
	Compile     compileCmd     `cmd:"" help:"Lower a Solidity source file to textual IR."`
	Deobfuscate deobfuscateCmd `cmd:"" help:"Reverse a mapping file's pseudonyms in a report."`
	Validate    validateCmd    `cmd:"" help:"Parse and lower a file, reporting diagnostics only."`
	Debug       debugCmd       `cmd:"" help:"Dump pass manager cache statistics for a file."`
}

type compileCmd struct {
	File        string `arg:"" help:"Path to the .sol source file."`
	Obfuscate   string `help:"Obfuscation level: none, minimal, standard." default:"none"`
	Salt        string `help:"Hash salt for standard-level obfuscation."`
	MappingOut  string `help:"Write the reverse-mapping JSON to this path."`
	Annotated   bool   `help:"Emit the annotated form with security cues."`
	ASCII       bool   `help:"Use bracketed-ASCII cue glyphs instead of emoji."`
	StripMeta   bool   `help:"Strip source metadata from the contract."`
}

func (c *compileCmd) Run() error {
	contract, _, err := lowerFile(c.File)
	if err != nil {
		return err
	}

	if level, ok := config.ParseObfuscationLevel(c.Obfuscate); ok && level != config.ObfuscationNone {
		cfg := config.ObfuscationConfig{
			Level:         level,
			RetainMapping: c.MappingOut != "",
			StripMetadata: c.StripMeta,
		}
		if c.Salt != "" {
			cfg.HashSalt, cfg.HasHashSalt = c.Salt, true
		}
		pass := obfuscate.NewPass(cfg)
		if err := pass.RunOnContract(contract, nil); err != nil {
			return fmt.Errorf("obfuscation pass failed: %w", err)
		}
		if c.MappingOut != "" {
			data, err := pass.ExportMapping().MarshalFile()
			if err != nil {
				return fmt.Errorf("marshaling mapping: %w", err)
			}
			if err := os.WriteFile(c.MappingOut, data, 0o644); err != nil {
				return fmt.Errorf("writing mapping file: %w", err)
			}
		}
	}

	emitCfg := config.EmitterConfig{Annotated: c.Annotated, ASCII: c.ASCII}
	if emitCfg.Annotated {
		fmt.Print(emit.AnnotatedContract(contract, emitCfg))
	} else {
		fmt.Print(emit.Contract(contract))
	}
	color.Green("✅ compiled %s", c.File)
	return nil
}

type deobfuscateCmd struct {
	Mapping string `arg:"" help:"Path to the mapping JSON exported by compile --mapping-out."`
	Report  string `arg:"" help:"Path to the free-form report text to deobfuscate."`
}

func (c *deobfuscateCmd) Run() error {
	mapData, err := os.ReadFile(c.Mapping)
	if err != nil {
		return fmt.Errorf("reading mapping file: %w", err)
	}
	mapping, err := obfuscate.LoadMapping(mapData)
	if err != nil {
		return fmt.Errorf("parsing mapping file: %w", err)
	}
	report, err := os.ReadFile(c.Report)
	if err != nil {
		return fmt.Errorf("reading report file: %w", err)
	}
	fmt.Print(vulnmap.Deobfuscate(mapping, string(report)))
	return nil
}

type validateCmd struct {
	File string `arg:"" help:"Path to the .sol source file."`
}

func (c *validateCmd) Run() error {
	_, diags, err := lowerFile(c.File)
	if err != nil {
		return err
	}
	if diags.Len() == 0 {
		color.Green("✅ %s: no diagnostics", c.File)
		return nil
	}
	for _, d := range diags.Items() {
		color.Yellow("⚠ %s", d.String())
	}
	if diags.HasErrors() {
		os.Exit(1)
	}
	return nil
}

type debugCmd struct {
	File string `arg:"" help:"Path to the .sol source file."`
}

func (c *debugCmd) Run() error {
	contract, _, err := lowerFile(c.File)
	if err != nil {
		return err
	}
	mgr := passmgr.NewPassManagerWithBounds(config.DefaultCacheBounds())
	passmgr.RegisterStandardAnalyses(mgr)
	mgr.EnableStatistics()
	for _, id := range []passmgr.AnalysisID{
		passmgr.AnalysisControlFlow, passmgr.AnalysisDominator, passmgr.AnalysisLoop,
		passmgr.AnalysisDefUse, passmgr.AnalysisAlias, passmgr.AnalysisLiveness,
		passmgr.AnalysisReachingDefs,
	} {
		if _, err := mgr.GetAnalysis(contract, id); err != nil {
			return fmt.Errorf("computing %s: %w", id, err)
		}
	}
	stats := mgr.CacheStatistics()
	var hitRate float64
	if total := stats.Hits + stats.Misses; total > 0 {
		hitRate = float64(stats.Hits) / float64(total)
	}
	fmt.Printf("cache: hits=%d misses=%d evictions=%d invalidations=%d hit_rate=%.2f\n",
		stats.Hits, stats.Misses, stats.Evictions, stats.Invalidations, hitRate)
	return nil
}

// lowerFile registers, parses, and lowers one source file.
func lowerFile(path string) (*ir.Contract, *diagnostics.Collector, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	registry := srcreg.NewRegistry()
	fileID, err := registry.Register(path, string(source))
	if err != nil {
		return nil, nil, fmt.Errorf("registering %s: %w", path, err)
	}

	root, err := solparse.Parse(fileID, path, string(source))
	if err != nil {
		return nil, nil, err
	}

	contract, collector := lower.LowerContract(root)
	return contract, collector, nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("solir"),
		kong.Description("Lowers Solidity to SSA IR, pseudonymizes identifiers, and maps findings back."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}
}
