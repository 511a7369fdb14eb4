package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/emer/etable/v2/agg"
	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/split"

	"github.com/dendralab/dendra/pkg/models"
)

// groupRank fixes the presentation order of dendrite-type groups; anything
// else sorts after these, alphabetically.
var groupRank = map[string]int{
	models.DendriteSpiny:         0,
	models.DendriteAspiny:        1,
	models.DendriteSparselySpiny: 2,
	models.DendriteNotApplicable: 3,
}

func rankOf(label string) int {
	if r, ok := groupRank[label]; ok {
		return r
	}
	return len(groupRank)
}

// Summary computes descriptive statistics for one feature column grouped by
// dendrite type. Groups with no measured values are omitted.
func Summary(dt *etable.Table, feature string) ([]models.FeatureGroupStat, error) {
	if !IsColumn(feature) {
		return nil, fmt.Errorf("unknown feature column %q", feature)
	}
	if dt.Rows == 0 {
		return nil, nil
	}

	ix := etable.NewIdxView(dt)
	spl := split.GroupBy(ix, []string{ColDendriteType})
	split.Desc(spl, feature)
	st := spl.AggsToTable(etable.AddAggName)

	stats := make([]models.FeatureGroupStat, 0, st.Rows)
	for row := 0; row < st.Rows; row++ {
		n := int(st.CellFloat(feature+":Count", row))
		if n == 0 {
			continue
		}
		stat := models.FeatureGroupStat{
			DendriteType: st.CellString(ColDendriteType, row),
			N:            n,
			Mean:         st.CellFloat(feature+":Mean", row),
			SEM:          st.CellFloat(feature+":Sem", row),
			Min:          st.CellFloat(feature+":Min", row),
			Max:          st.CellFloat(feature+":Max", row),
		}
		// A single observation has no spread.
		if math.IsNaN(stat.SEM) {
			stat.SEM = 0
		}
		stats = append(stats, stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		ri, rj := rankOf(stats[i].DendriteType), rankOf(stats[j].DendriteType)
		if ri != rj {
			return ri < rj
		}
		return stats[i].DendriteType < stats[j].DendriteType
	})
	return stats, nil
}

// FilterDendriteType returns an index view restricted to one dendrite type
func FilterDendriteType(dt *etable.Table, dendriteType string) *etable.IdxView {
	ix := etable.NewIdxView(dt)
	ix.Filter(func(et *etable.Table, row int) bool {
		return et.CellString(ColDendriteType, row) == dendriteType
	})
	return ix
}

// GroupMean returns the mean of one feature over cells of one dendrite
// type. NaN means the group is absent or has no measured values.
func GroupMean(dt *etable.Table, dendriteType, feature string) float64 {
	ix := FilterDendriteType(dt, dendriteType)
	if ix.Len() == 0 {
		return math.NaN()
	}
	return agg.Mean(ix, feature)[0]
}

// XY holds paired feature values for one dendrite-type group
type XY struct {
	DendriteType string
	X            []float64
	Y            []float64
}

// ScatterData extracts complete (x, y) pairs per dendrite type. Rows
// missing either value are dropped, and group order follows the fixed
// dendrite-type ranking.
func ScatterData(dt *etable.Table, xCol, yCol string) ([]XY, error) {
	if !IsColumn(xCol) {
		return nil, fmt.Errorf("unknown feature column %q", xCol)
	}
	if !IsColumn(yCol) {
		return nil, fmt.Errorf("unknown feature column %q", yCol)
	}

	groups := make(map[string]*XY)
	for row := 0; row < dt.Rows; row++ {
		x := dt.CellFloat(xCol, row)
		y := dt.CellFloat(yCol, row)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		label := dt.CellString(ColDendriteType, row)
		g, ok := groups[label]
		if !ok {
			g = &XY{DendriteType: label}
			groups[label] = g
		}
		g.X = append(g.X, x)
		g.Y = append(g.Y, y)
	}

	out := make([]XY, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rankOf(out[i].DendriteType), rankOf(out[j].DendriteType)
		if ri != rj {
			return ri < rj
		}
		return out[i].DendriteType < out[j].DendriteType
	})
	return out, nil
}
