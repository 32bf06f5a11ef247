// Package obfuscate implements the deterministic name-pseudonymization
// pass, grounded on the original Rust
// NameObfuscator and ObfuscationPass
// (thalir-core/src/obfuscation/name_obfuscator.rs, pass.rs).
package obfuscate

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"solir/internal/config"
)

// category distinguishes the four independent Minimal-level counters.
type category int

const (
	categoryContract category = iota
	categoryFunction
	categoryStorage
	categoryError
)

func (c category) prefix() string {
	switch c {
	case categoryContract:
		return "c"
	case categoryFunction:
		return "f"
	case categoryStorage:
		return "v"
	case categoryError:
		return "error"
	default:
		return "x"
	}
}

func (c category) minimalPrefix() string {
	switch c {
	case categoryContract:
		return "contract"
	case categoryFunction:
		return "fn"
	case categoryStorage:
		return "var"
	case categoryError:
		return "error"
	default:
		return "x"
	}
}

// NameObfuscator assigns pseudonyms to source identifiers, one
// independent counter per category at Minimal level, or a salted hash
// at Standard level, and records the reverse mapping when configured
// to.
type NameObfuscator struct {
	cfg      config.ObfuscationConfig
	mapping  map[string]string // original -> obfuscated
	reverse  map[string]string // obfuscated -> original
	counters map[category]int
}

// New constructs an obfuscator for cfg.
func New(cfg config.ObfuscationConfig) *NameObfuscator {
	return &NameObfuscator{
		cfg:      cfg,
		mapping:  make(map[string]string),
		reverse:  make(map[string]string),
		counters: make(map[category]int),
	}
}

func (o *NameObfuscator) obfuscate(name string, cat category) string {
	if existing, ok := o.mapping[name]; ok {
		return existing
	}

	var result string
	switch o.cfg.Level {
	case config.ObfuscationNone:
		result = name
	case config.ObfuscationMinimal:
		n := o.counters[cat]
		o.counters[cat] = n + 1
		result = fmt.Sprintf("%s_%d", cat.minimalPrefix(), n)
	case config.ObfuscationStandard:
		result = o.hashName(name, cat.prefix())
	default:
		result = name
	}

	if o.cfg.RetainMapping {
		o.mapping[name] = result
		o.reverse[result] = name
	}
	return result
}

// ObfuscateContractName assigns or looks up a contract pseudonym.
func (o *NameObfuscator) ObfuscateContractName(name string) string {
	return o.obfuscate(name, categoryContract)
}

// ObfuscateFunctionName assigns or looks up a function pseudonym.
func (o *NameObfuscator) ObfuscateFunctionName(name string) string {
	return o.obfuscate(name, categoryFunction)
}

// ObfuscateStorageName assigns or looks up a storage-identifier
// pseudonym (slots, mappings, arrays, structs, and struct fields all
// share this category rewrite order step 3).
func (o *NameObfuscator) ObfuscateStorageName(name string) string {
	return o.obfuscate(name, categoryStorage)
}

// ObfuscateErrorMessage assigns or looks up a pseudonym for a
// Require/Assert/Revert message (rewrite order step 4).
func (o *NameObfuscator) ObfuscateErrorMessage(message string) string {
	return o.obfuscate(message, categoryError)
}

// ParamName is the deterministic positional name for obfuscated
// function parameters.
func ParamName(index int) string {
	return fmt.Sprintf("p%d", index)
}

// hashName computes "{prefix}_{first-3-bytes-of-keccak256(salt||name)
// in hex}". Keccak256 rather than a generic stdlib digest matches the
// hash the EVM uses for storage slots, selectors and event topics; this
// IR does not compute those hashes itself.
func (o *NameObfuscator) hashName(name, prefix string) string {
	h := sha3.NewLegacyKeccak256()
	if o.cfg.HasHashSalt {
		h.Write([]byte(o.cfg.HashSalt))
	}
	h.Write([]byte(name))
	sum := h.Sum(nil)
	return fmt.Sprintf("%s_%02x%02x%02x", prefix, sum[0], sum[1], sum[2])
}

// Deobfuscate returns the original name for a pseudonym, if recorded.
func (o *NameObfuscator) Deobfuscate(obfuscated string) (string, bool) {
	name, ok := o.reverse[obfuscated]
	return name, ok
}

// ExportMapping returns the reverse (obfuscated -> original) map.
func (o *NameObfuscator) ExportMapping() map[string]string {
	out := make(map[string]string, len(o.reverse))
	for k, v := range o.reverse {
		out[k] = v
	}
	return out
}

// ImportMapping merges an externally loaded reverse map into this
// obfuscator, restoring both lookup directions.
func (o *NameObfuscator) ImportMapping(mapping map[string]string) {
	for obfuscated, original := range mapping {
		o.reverse[obfuscated] = original
		o.mapping[original] = obfuscated
	}
}
