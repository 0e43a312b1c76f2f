package schedule

import (
	"strings"
	"testing"

	"github.com/yungbote/blueprint-backend/internal/types"
)

func testTable() CostTable {
	return CostTable{
		Version: 1,
		Costs: map[string]map[string]float64{
			"door": {
				"timber": 150,
				"steel":  220,
			},
			"window": {
				"aluminium": 180,
			},
		},
	}
}

func TestExtractCanonicalRow(t *testing.T) {
	res := Extract("D-01, 900x2100mm, Timber, qty 3", testTable(), UnitMillimeters)
	if len(res.Entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(res.Entries))
	}

	e := res.Entries[0]
	if e.ItemType != types.ItemTypeDoor {
		t.Errorf("item type: want=door got=%s", e.ItemType)
	}
	if e.Label != "D-01" {
		t.Errorf("label: want=D-01 got=%s", e.Label)
	}
	if e.WidthMM != 900 || e.HeightMM != 2100 {
		t.Errorf("dimensions: want=900x2100 got=%gx%g", e.WidthMM, e.HeightMM)
	}
	if e.Material != "Timber" {
		t.Errorf("material: want=Timber got=%s", e.Material)
	}
	if e.Quantity != 3 {
		t.Errorf("quantity: want=3 got=%d", e.Quantity)
	}
	if e.AreaSqm != 1.89 {
		t.Errorf("area: want=1.89 got=%g", e.AreaSqm)
	}
	if e.TotalCost == nil || *e.TotalCost != 850.5 {
		t.Errorf("total cost: want=850.5 got=%v", e.TotalCost)
	}
	if res.UnknownCost != 0 || res.UnparsedRows != 0 {
		t.Errorf("counters: unknown=%d unparsed=%d", res.UnknownCost, res.UnparsedRows)
	}
}

func TestExtractDimensionFormats(t *testing.T) {
	cases := []struct {
		name     string
		row      string
		unit     Unit
		wantW    float64
		wantH    float64
		wantType string
	}{
		{"default millimeters", "D-02 900x2100 Steel", UnitMillimeters, 900, 2100, "door"},
		{"explicit centimeters", "D-03 90x210cm Timber", UnitMillimeters, 900, 2100, "door"},
		{"explicit meters", "W-01 0.9m x 2.1m Aluminium", UnitMillimeters, 900, 2100, "window"},
		{"document default cm", "D-04 90x210 Timber", UnitCentimeters, 900, 2100, "door"},
		{"unit on one side applies to both", "W-02 600x1200mm Aluminium", UnitMeters, 600, 1200, "window"},
		{"feet and inches", `D-05 3'-0" x 7'-0" Timber`, UnitMillimeters, 914.4, 2133.6, "door"},
		{"unpadded window label", "W3 600x900mm Aluminium", UnitMillimeters, 600, 900, "window"},
		{"prose prefix on row", "Door schedule: D-01 900x2100mm Timber qty 2", UnitMillimeters, 900, 2100, "door"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Extract(tc.row, testTable(), tc.unit)
			if len(res.Entries) != 1 {
				t.Fatalf("entries: want=1 got=%d (unparsed=%d)", len(res.Entries), res.UnparsedRows)
			}
			e := res.Entries[0]
			if !approxEqual(e.WidthMM, tc.wantW) || !approxEqual(e.HeightMM, tc.wantH) {
				t.Errorf("dimensions: want=%gx%g got=%gx%g", tc.wantW, tc.wantH, e.WidthMM, e.HeightMM)
			}
			if e.ItemType != tc.wantType {
				t.Errorf("item type: want=%s got=%s", tc.wantType, e.ItemType)
			}
		})
	}
}

func TestExtractQuantityForms(t *testing.T) {
	cases := []struct {
		name string
		row  string
		want int
	}{
		{"qty keyword", "D-01 900x2100mm Timber qty 4", 4},
		{"parenthesized", "D-01 900x2100mm Timber (2)", 2},
		{"trailing integer", "D-01 900x2100mm Timber 5", 5},
		{"absent defaults to one", "D-01 900x2100mm Timber", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Extract(tc.row, testTable(), UnitMillimeters)
			if len(res.Entries) != 1 {
				t.Fatalf("entries: want=1 got=%d", len(res.Entries))
			}
			if got := res.Entries[0].Quantity; got != tc.want {
				t.Errorf("quantity: want=%d got=%d", tc.want, got)
			}
		})
	}
}

func TestExtractUnknownCostIsNilNotZero(t *testing.T) {
	res := Extract("D-01 900x2100mm Obsidian qty 2", testTable(), UnitMillimeters)
	if len(res.Entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(res.Entries))
	}
	e := res.Entries[0]
	if e.UnitCost != nil || e.TotalCost != nil {
		t.Errorf("cost should be nil for unknown material: unit=%v total=%v", e.UnitCost, e.TotalCost)
	}
	if res.UnknownCost != 1 {
		t.Errorf("unknown cost counter: want=1 got=%d", res.UnknownCost)
	}
	// Zero is a valid cost, distinct from unknown.
	zeroTable := CostTable{Costs: map[string]map[string]float64{"door": {"foam": 0}}}
	res = Extract("D-01 900x2100mm Foam", zeroTable, UnitMillimeters)
	if res.Entries[0].TotalCost == nil || *res.Entries[0].TotalCost != 0 {
		t.Errorf("zero cost entry: want=0 got=%v", res.Entries[0].TotalCost)
	}
	if res.UnknownCost != 0 {
		t.Errorf("zero cost must not count as unknown, got=%d", res.UnknownCost)
	}
}

func TestExtractDefaultUnitCostFallback(t *testing.T) {
	table := testTable()
	table.DefaultUnitCost = 150
	res := Extract("D-01 900x2100mm Obsidian qty 1", table, UnitMillimeters)
	e := res.Entries[0]
	if e.UnitCost == nil || *e.UnitCost != 150 {
		t.Fatalf("unit cost fallback: want=150 got=%v", e.UnitCost)
	}
	if res.UnknownCost != 0 {
		t.Errorf("fallback must resolve cost, unknown=%d", res.UnknownCost)
	}
}

func TestExtractUnparsedRowCountedAndKeptInNarrative(t *testing.T) {
	text := "Door schedule follows.\nD-09 timber door with no dimensions\nD-01 900x2100mm Timber"
	res := Extract(text, testTable(), UnitMillimeters)
	if len(res.Entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(res.Entries))
	}
	if res.UnparsedRows != 1 {
		t.Errorf("unparsed rows: want=1 got=%d", res.UnparsedRows)
	}
	if !strings.Contains(res.Narrative, "D-09 timber door with no dimensions") {
		t.Errorf("unparsed row missing from narrative: %q", res.Narrative)
	}
	if !strings.Contains(res.Narrative, "Door schedule follows.") {
		t.Errorf("prose missing from narrative: %q", res.Narrative)
	}
}

func TestExtractWrappedRowMergesNextLine(t *testing.T) {
	text := "D-07\n900x2100mm Timber qty 2\nEnd of schedule."
	res := Extract(text, testTable(), UnitMillimeters)
	if len(res.Entries) != 1 {
		t.Fatalf("entries: want=1 got=%d (unparsed=%d)", len(res.Entries), res.UnparsedRows)
	}
	e := res.Entries[0]
	if e.Label != "D-07" || e.Quantity != 2 {
		t.Errorf("merged row: label=%s qty=%d", e.Label, e.Quantity)
	}
	if strings.Contains(res.Narrative, "900x2100mm") {
		t.Errorf("consumed continuation line should not be narrative: %q", res.Narrative)
	}
}

func TestExtractIdempotent(t *testing.T) {
	text := "Intro prose.\nD-01 900x2100mm Timber qty 3\nW-01 600x1200mm Aluminium\nOutro."
	first := Extract(text, testTable(), UnitMillimeters)
	second := Extract(text, testTable(), UnitMillimeters)

	if len(first.Entries) != len(second.Entries) {
		t.Fatalf("entry count differs: %d vs %d", len(first.Entries), len(second.Entries))
	}
	for i := range first.Entries {
		a, b := first.Entries[i], second.Entries[i]
		if a.Label != b.Label || a.AreaSqm != b.AreaSqm || !floatPtrEqual(a.TotalCost, b.TotalCost) {
			t.Errorf("entry %d differs: %+v vs %+v", i, a, b)
		}
	}
	if first.Narrative != second.Narrative {
		t.Error("narrative differs between runs")
	}
}

func TestEstimateAggregates(t *testing.T) {
	res := Extract(
		"D-01 900x2100mm Timber qty 3\nW-01 600x1200mm Obsidian qty 2",
		testTable(),
		UnitMillimeters,
	)
	est := Estimate(res.Entries[0].DocumentID, res.Entries)

	// 1.89*3 + 0.72*2 = 7.11
	if est.TotalAreaSqm != 7.11 {
		t.Errorf("total area: want=7.11 got=%g", est.TotalAreaSqm)
	}
	if est.TotalCost != 850.5 {
		t.Errorf("total cost sums only known entries: want=850.5 got=%g", est.TotalCost)
	}
	if est.KnownCostEntries != 1 || est.UnknownCostEntries != 1 {
		t.Errorf("coverage split: known=%d unknown=%d", est.KnownCostEntries, est.UnknownCostEntries)
	}
}

func TestSerializeEntry(t *testing.T) {
	res := Extract("D-01 900x2100mm Timber qty 3", testTable(), UnitMillimeters)
	line := SerializeEntry(res.Entries[0])
	for _, want := range []string{"door D-01", "900mm x 2100mm", "material Timber", "quantity 3", "area 1.890 sqm", "estimated cost 850.50"} {
		if !strings.Contains(line, want) {
			t.Errorf("serialized row missing %q: %s", want, line)
		}
	}

	unknown := Extract("D-02 900x2100mm Obsidian", testTable(), UnitMillimeters)
	if !strings.Contains(SerializeEntry(unknown.Entries[0]), "cost unknown") {
		t.Error("unknown cost should serialize as 'cost unknown'")
	}
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
