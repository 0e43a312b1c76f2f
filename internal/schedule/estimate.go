package schedule

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/types"
)

// Estimate recomputes a cost estimate from the current entry set. Total cost
// sums only entries with a known cost; the known/unknown split makes coverage
// gaps explicit instead of folding them into a misleading zero.
func Estimate(documentID uuid.UUID, entries []*types.ScheduleEntry) *types.CostEstimate {
	est := &types.CostEstimate{
		DocumentID: documentID,
		Entries:    entries,
	}
	for _, e := range entries {
		est.TotalAreaSqm += e.AreaSqm * float64(e.Quantity)
		if e.TotalCost != nil {
			est.TotalCost += *e.TotalCost
			est.KnownCostEntries++
		} else {
			est.UnknownCostEntries++
		}
	}
	est.TotalAreaSqm = roundTo(est.TotalAreaSqm, 3)
	est.TotalCost = roundTo(est.TotalCost, 2)
	return est
}

// SerializeEntry renders one entry as a single indexable line. The chunker
// treats these lines as atomic: a serialized row is never split across chunks.
func SerializeEntry(e *types.ScheduleEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %.0fmm x %.0fmm", e.ItemType, e.Label, e.WidthMM, e.HeightMM)
	if e.Material != "" {
		fmt.Fprintf(&b, ", material %s", e.Material)
	}
	fmt.Fprintf(&b, ", quantity %d, area %.3f sqm", e.Quantity, e.AreaSqm)
	if e.TotalCost != nil {
		fmt.Fprintf(&b, ", estimated cost %.2f", *e.TotalCost)
	} else {
		b.WriteString(", cost unknown")
	}
	return b.String()
}
