package schedule

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CostTable maps (item type, material) to a unit cost per square meter. It is
// loaded once at startup and passed by value into the extractor so tests can
// pin a fixed table. A zero DefaultUnitCost means "no fallback": unresolved
// lookups report not-found instead of guessing.
type CostTable struct {
	Version         int                           `yaml:"version"`
	DefaultUnitCost float64                       `yaml:"default_unit_cost"`
	Costs           map[string]map[string]float64 `yaml:"costs"`
}

func LoadCostTable(path string) (CostTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CostTable{}, fmt.Errorf("read cost table: %w", err)
	}
	var table CostTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return CostTable{}, fmt.Errorf("parse cost table: %w", err)
	}
	if len(table.Costs) == 0 && table.DefaultUnitCost == 0 {
		return CostTable{}, fmt.Errorf("cost table %q has no costs and no default", path)
	}
	return table.normalized(), nil
}

// DefaultCostTable is the built-in table used when COST_TABLE_PATH is unset.
func DefaultCostTable() CostTable {
	return CostTable{
		Version:         1,
		DefaultUnitCost: 150,
		Costs: map[string]map[string]float64{
			"door": {
				"timber":    150,
				"steel":     220,
				"aluminium": 190,
				"glass":     260,
			},
			"window": {
				"timber":    170,
				"aluminium": 180,
				"upvc":      140,
				"glass":     210,
			},
		},
	}
}

// Lookup resolves a unit cost for (itemType, material). Material matching is
// case-insensitive. A configured DefaultUnitCost only applies when the item
// type is known but the material is not; a completely unknown item type is
// always a miss.
func (t CostTable) Lookup(itemType, material string) (float64, bool) {
	materials, ok := t.Costs[normalizeKey(itemType)]
	if !ok {
		return 0, false
	}
	if cost, ok := materials[normalizeKey(material)]; ok {
		return cost, true
	}
	if t.DefaultUnitCost > 0 {
		return t.DefaultUnitCost, true
	}
	return 0, false
}

func (t CostTable) normalized() CostTable {
	out := CostTable{
		Version:         t.Version,
		DefaultUnitCost: t.DefaultUnitCost,
		Costs:           make(map[string]map[string]float64, len(t.Costs)),
	}
	for itemType, materials := range t.Costs {
		m := make(map[string]float64, len(materials))
		for material, cost := range materials {
			m[normalizeKey(material)] = cost
		}
		out.Costs[normalizeKey(itemType)] = m
	}
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
