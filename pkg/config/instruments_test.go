package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	instrumentv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/instrument/v1"
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

func writeInstrumentFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "instruments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Test 1: A full definition file parses into specs in file order
func TestLoadInstruments(t *testing.T) {
	path := writeInstrumentFile(t, `
instruments:
  - id: 1
    symbol: INDEX
    kind: scalar
    tick_size: 5
    lot_size: 10
    tick_value: 2.5
  - id: 2
    symbol: INDEX-110C
    kind: call
    reference_id: 1
    strike: 11000
    tick_size: 1
    lot_size: 1
    tick_value: 1.0
`)

	specs, err := LoadInstruments(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, marketv1.InstrumentID(1), specs[0].ID)
	assert.Equal(t, instrumentv1.KindScalar, specs[0].Kind)
	assert.Equal(t, marketv1.Price(5), specs[0].TickSize)
	assert.Equal(t, marketv1.Quantity(10), specs[0].LotSize)
	assert.Equal(t, 2.5, specs[0].TickValue)

	assert.Equal(t, instrumentv1.KindCall, specs[1].Kind)
	assert.Equal(t, marketv1.InstrumentID(1), specs[1].ReferenceID)
	assert.Equal(t, marketv1.Price(11000), specs[1].Strike)
}

// Test 2: Omitted sizes default to 1
func TestLoadInstruments_Defaults(t *testing.T) {
	path := writeInstrumentFile(t, `
instruments:
  - id: 1
    symbol: INDEX
    kind: scalar
`)

	specs, err := LoadInstruments(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, marketv1.Price(1), specs[0].TickSize)
	assert.Equal(t, marketv1.Quantity(1), specs[0].LotSize)
	assert.Equal(t, 1.0, specs[0].TickValue)
}

// Test 3: Bad kinds and missing files surface errors
func TestLoadInstruments_Errors(t *testing.T) {
	_, err := LoadInstruments(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeInstrumentFile(t, `
instruments:
  - id: 1
    symbol: INDEX
    kind: future
`)
	_, err = LoadInstruments(path)
	assert.Error(t, err)
}
