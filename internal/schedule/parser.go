// Package schedule parses door/window schedule rows out of extracted page
// text and computes per-entry areas and costs. The extractor is deterministic:
// identical input text and cost table always produce identical entries.
package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/blueprint-backend/internal/types"
)

// Unit is a linear dimension unit appearing in schedule rows.
type Unit string

const (
	UnitMillimeters Unit = "mm"
	UnitCentimeters Unit = "cm"
	UnitMeters      Unit = "m"
)

// ParseUnit maps a configured unit name to a Unit, defaulting to millimeters.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cm", "centimeter", "centimeters":
		return UnitCentimeters
	case "m", "meter", "meters":
		return UnitMeters
	default:
		return UnitMillimeters
	}
}

func (u Unit) toMillimeters(v float64) float64 {
	switch u {
	case UnitCentimeters:
		return v * 10
	case UnitMeters:
		return v * 1000
	default:
		return v
	}
}

// Result carries the parsed entries plus the recoverable degradations the
// caller is expected to surface: rows that looked like schedule rows but
// could not be parsed, and entries whose cost could not be resolved.
type Result struct {
	Entries      []*types.ScheduleEntry
	Narrative    string
	UnparsedRows int
	UnknownCost  int
}

var (
	// Label token: D-01, D01, W3, W-12A. Not anchored: schedule rows often
	// carry a prose prefix ("Door schedule: D-01 ..."); the requirement that a
	// dimension pair follows the label keeps false positives out.
	labelRe = regexp.MustCompile(`\b([DdWw])[-_.]?(\d{1,4})([A-Za-z]?)\b`)

	// Metric dimension pair: 900x2100, 900 x 2100mm, 0.9m x 2.1m, 90x210 cm.
	metricDimsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mm|cm|m)?\s*[x×X]\s*(\d+(?:\.\d+)?)\s*(mm|cm|m)?\b`)

	// Imperial dimension pair: 3'-0" x 7'-0", 3' x 7'.
	imperialDimsRe = regexp.MustCompile(`(\d+)'(?:\s*-?\s*(\d+(?:\.\d+)?)(?:"|”))?\s*[x×X]\s*(\d+)'(?:\s*-?\s*(\d+(?:\.\d+)?)(?:"|”))?`)

	qtyRe         = regexp.MustCompile(`(?i)\b(?:qty|quantity|count|no\.?)\s*[:=]?\s*(\d+)\b`)
	parenQtyRe    = regexp.MustCompile(`\((\d+)\)`)
	trailingIntRe = regexp.MustCompile(`(?:^|\s)(\d{1,3})\s*$`)

	materialWordRe = regexp.MustCompile(`(?i)\b([A-Za-z]{3,})\b`)
)

// material words that are grammar keywords, not materials
var materialStopWords = map[string]struct{}{
	"qty": {}, "quantity": {}, "count": {},
	"door": {}, "doors": {}, "window": {}, "windows": {},
	"schedule": {}, "the": {}, "and": {}, "with": {}, "type": {},
}

// Extract scans text line by line for schedule rows. Lines that do not parse
// as rows become the narrative residual, retained for general Q&A. A line that
// carries a label token but no complete dimension pair is merged with the
// following line once (wrapped rows); if the merge still fails to parse, the
// row is counted as unparsed and left in the narrative.
func Extract(text string, table CostTable, defaultUnit Unit) Result {
	var res Result
	var narrative []string

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			narrative = append(narrative, line)
			continue
		}

		entry, ok := parseRow(trimmed, defaultUnit)
		if !ok && !labelRe.MatchString(trimmed) {
			narrative = append(narrative, line)
			continue
		}
		if !ok && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !labelRe.MatchString(next) {
				merged := trimmed + " " + next
				if entry, ok = parseRow(merged, defaultUnit); ok {
					i++
				}
			}
		}
		if !ok {
			res.UnparsedRows++
			narrative = append(narrative, line)
			continue
		}

		applyCost(entry, table, &res)
		res.Entries = append(res.Entries, entry)
	}

	res.Narrative = strings.TrimSpace(strings.Join(narrative, "\n"))
	return res
}

func parseRow(row string, defaultUnit Unit) (*types.ScheduleEntry, bool) {
	labelLoc := labelRe.FindStringSubmatchIndex(row)
	if labelLoc == nil {
		return nil, false
	}
	labelMatch := labelRe.FindStringSubmatch(row[labelLoc[0]:])

	// Dimensions must follow the label; numbers before it are prose.
	rest := row[labelLoc[1]:]
	widthMM, heightMM, dimSpan, ok := parseDimensions(rest, defaultUnit)
	if !ok || widthMM <= 0 || heightMM <= 0 {
		return nil, false
	}

	label := normalizeLabel(labelMatch)
	itemType := types.ItemTypeDoor
	if strings.EqualFold(labelMatch[1], "w") {
		itemType = types.ItemTypeWindow
	}

	// Everything after the dimensions is where material and quantity live.
	tail := rest[dimSpan[1]:]

	quantity := 1
	if m := qtyRe.FindStringSubmatch(tail); m != nil {
		quantity = mustAtoi(m[1])
		tail = strings.Replace(tail, m[0], " ", 1)
	} else if m := parenQtyRe.FindStringSubmatch(tail); m != nil {
		quantity = mustAtoi(m[1])
		tail = strings.Replace(tail, m[0], " ", 1)
	} else if m := trailingIntRe.FindStringSubmatch(tail); m != nil {
		quantity = mustAtoi(m[1])
		tail = strings.TrimSuffix(strings.TrimRight(tail, " \t"), m[1])
	}
	if quantity <= 0 {
		quantity = 1
	}

	material := firstMaterialWord(tail)

	area := roundTo((widthMM/1000)*(heightMM/1000), 3)
	return &types.ScheduleEntry{
		ItemType: itemType,
		Label:    label,
		WidthMM:  widthMM,
		HeightMM: heightMM,
		Quantity: quantity,
		Material: material,
		AreaSqm:  area,
	}, true
}

// parseDimensions finds the first dimension pair in the row and converts it to
// millimeters. A unit marker on either side of the "x" applies to both values
// (900x2100mm means both are mm); markers on both sides are honored per side.
func parseDimensions(row string, defaultUnit Unit) (widthMM, heightMM float64, span []int, ok bool) {
	if loc := imperialDimsRe.FindStringSubmatchIndex(row); loc != nil {
		m := imperialDimsRe.FindStringSubmatch(row)
		return feetInchesToMM(m[1], m[2]), feetInchesToMM(m[3], m[4]), loc[0:2], true
	}

	loc := metricDimsRe.FindStringSubmatchIndex(row)
	if loc == nil {
		return 0, 0, nil, false
	}
	m := metricDimsRe.FindStringSubmatch(row)

	wVal, err1 := strconv.ParseFloat(m[1], 64)
	hVal, err2 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, nil, false
	}

	wUnit, hUnit := Unit(m[2]), Unit(m[4])
	switch {
	case wUnit == "" && hUnit == "":
		wUnit, hUnit = defaultUnit, defaultUnit
	case wUnit == "":
		wUnit = hUnit
	case hUnit == "":
		hUnit = wUnit
	}

	return wUnit.toMillimeters(wVal), hUnit.toMillimeters(hVal), loc[0:2], true
}

func feetInchesToMM(feet, inches string) float64 {
	ft, _ := strconv.ParseFloat(feet, 64)
	in := 0.0
	if inches != "" {
		in, _ = strconv.ParseFloat(inches, 64)
	}
	return (ft*12 + in) * 25.4
}

func applyCost(entry *types.ScheduleEntry, table CostTable, res *Result) {
	unitCost, found := table.Lookup(entry.ItemType, entry.Material)
	if !found {
		res.UnknownCost++
		return
	}
	total := roundTo(entry.AreaSqm*unitCost*float64(entry.Quantity), 2)
	entry.UnitCost = &unitCost
	entry.TotalCost = &total
}

func firstMaterialWord(tail string) string {
	for _, m := range materialWordRe.FindAllStringSubmatch(tail, -1) {
		word := strings.ToLower(m[1])
		if _, stop := materialStopWords[word]; stop {
			continue
		}
		return strings.ToUpper(word[:1]) + word[1:]
	}
	return ""
}

func normalizeLabel(labelMatch []string) string {
	return fmt.Sprintf("%s-%s%s",
		strings.ToUpper(labelMatch[1]),
		padLabelNumber(labelMatch[2]),
		strings.ToUpper(labelMatch[3]),
	)
}

func padLabelNumber(n string) string {
	if len(n) == 1 {
		return "0" + n
	}
	return n
}

func mustAtoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
