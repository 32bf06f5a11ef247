package obfuscate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solir/internal/config"
)

func TestMinimalObfuscation(t *testing.T) {
	o := New(config.ObfuscationConfig{Level: config.ObfuscationMinimal, RetainMapping: true})

	assert.Equal(t, "contract_0", o.ObfuscateContractName("MyToken"))
	assert.Equal(t, "contract_1", o.ObfuscateContractName("AnotherContract"))
	assert.Equal(t, "fn_0", o.ObfuscateFunctionName("transfer"))
	assert.Equal(t, "fn_1", o.ObfuscateFunctionName("approve"))
	assert.Equal(t, "var_0", o.ObfuscateStorageName("balances"))
	assert.Equal(t, "var_1", o.ObfuscateStorageName("allowances"))
}

func TestStandardObfuscation(t *testing.T) {
	o := New(config.ObfuscationConfig{
		Level: config.ObfuscationStandard, RetainMapping: true,
		HashSalt: "test-salt", HasHashSalt: true,
	})

	first := o.ObfuscateContractName("MyToken")
	assert.Len(t, first, 8)
	assert.Regexp(t, "^c_[0-9a-f]{6}$", first)

	second := o.ObfuscateContractName("MyToken")
	assert.Equal(t, first, second)
}

func TestDeterministicHashingSameSalt(t *testing.T) {
	cfg := config.ObfuscationConfig{Level: config.ObfuscationStandard, RetainMapping: true, HashSalt: "fixed-salt", HasHashSalt: true}
	o1 := New(cfg)
	o2 := New(cfg)

	assert.Equal(t, o1.ObfuscateContractName("TestContract"), o2.ObfuscateContractName("TestContract"))
}

func TestDifferentSaltsProduceDifferentHashes(t *testing.T) {
	o1 := New(config.ObfuscationConfig{Level: config.ObfuscationStandard, RetainMapping: true, HashSalt: "salt1", HasHashSalt: true})
	o2 := New(config.ObfuscationConfig{Level: config.ObfuscationStandard, RetainMapping: true, HashSalt: "salt2", HasHashSalt: true})

	assert.NotEqual(t, o1.ObfuscateContractName("TestContract"), o2.ObfuscateContractName("TestContract"))
}

func TestDeobfuscation(t *testing.T) {
	o := New(config.ObfuscationConfig{Level: config.ObfuscationMinimal, RetainMapping: true})
	obf := o.ObfuscateContractName("NovelBondingCurve")

	name, ok := o.Deobfuscate(obf)
	require.True(t, ok)
	assert.Equal(t, "NovelBondingCurve", name)
}

func TestExportImportMapping(t *testing.T) {
	cfg := config.ObfuscationConfig{Level: config.ObfuscationStandard, RetainMapping: true}
	o := New(cfg)
	o.ObfuscateContractName("Contract1")
	o.ObfuscateFunctionName("function1")

	mapping := o.ExportMapping()

	fresh := New(cfg)
	fresh.ImportMapping(mapping)

	assert.Len(t, fresh.ExportMapping(), 2)
}

func TestNoneLevelPreservesNames(t *testing.T) {
	o := New(config.ObfuscationConfig{Level: config.ObfuscationNone})

	assert.Equal(t, "MyContract", o.ObfuscateContractName("MyContract"))
	assert.Equal(t, "myFunction", o.ObfuscateFunctionName("myFunction"))
	assert.Equal(t, "myVar", o.ObfuscateStorageName("myVar"))
}

func TestMappingRoundTripJSON(t *testing.T) {
	o := New(config.ObfuscationConfig{Level: config.ObfuscationMinimal, RetainMapping: true})
	o.ObfuscateContractName("NovelBondingCurveAMM")

	m := FromObfuscator(o)
	data, err := m.MarshalFile()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mapping"`)

	loaded, err := LoadMapping(data)
	require.NoError(t, err)

	original, ok := loaded.Deobfuscate("contract_0")
	require.True(t, ok)
	assert.Equal(t, "NovelBondingCurveAMM", original)
}
