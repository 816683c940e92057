package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	instrumentv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/instrument/v1"
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	"github.com/nehadyounis/themarketmakinggame/pkg/errors"
)

// instrumentFile is the on-disk shape of the instrument definitions.
type instrumentFile struct {
	Instruments []instrumentDef `yaml:"instruments"`
}

type instrumentDef struct {
	ID          uint32  `yaml:"id"`
	Symbol      string  `yaml:"symbol"`
	Kind        string  `yaml:"kind"`
	ReferenceID uint32  `yaml:"reference_id"`
	Strike      int64   `yaml:"strike"`
	TickSize    int64   `yaml:"tick_size"`
	LotSize     int64   `yaml:"lot_size"`
	TickValue   float64 `yaml:"tick_value"`
}

// LoadInstruments reads instrument definitions from a YAML file. Definitions
// keep their file order so references can be registered before the options
// that use them.
func LoadInstruments(path string) ([]instrumentv1.Spec, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewTracer("instrument_file_read_error").Wrap(err)
	}

	var file instrumentFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, errors.NewTracer("instrument_file_parse_error").Wrap(err)
	}

	specs := make([]instrumentv1.Spec, 0, len(file.Instruments))
	for _, def := range file.Instruments {
		kind, err := instrumentv1.ParseKind(def.Kind)
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", def.ID, err)
		}

		spec := instrumentv1.Spec{
			ID:          marketv1.InstrumentID(def.ID),
			Symbol:      def.Symbol,
			Kind:        kind,
			ReferenceID: marketv1.InstrumentID(def.ReferenceID),
			Strike:      marketv1.Price(def.Strike),
			TickSize:    marketv1.Price(def.TickSize),
			LotSize:     marketv1.Quantity(def.LotSize),
			TickValue:   def.TickValue,
		}
		if spec.TickSize == 0 {
			spec.TickSize = 1
		}
		if spec.LotSize == 0 {
			spec.LotSize = 1
		}
		if spec.TickValue == 0 {
			spec.TickValue = 1.0
		}

		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return specs, nil
}
