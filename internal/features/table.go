package features

import (
	"math"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"

	"github.com/dendralab/dendra/pkg/models"
)

// Identity columns of the assembled feature table. Feature columns keep the
// upstream snake_case names so exports line up with published data.
const (
	ColSpecimenID   = "SpecimenID"
	ColSpecies      = "Species"
	ColDendriteType = "DendriteType"
)

// Columns lists the feature columns in table order.
var Columns = []string{
	"vrest",
	"tau",
	"ri",
	"sag",
	"threshold_i_long_square",
	"threshold_v_long_square",
	"peak_v_long_square",
	"fast_trough_v_long_square",
	"trough_v_long_square",
	"upstroke_downstroke_ratio_long_square",
	"upstroke_downstroke_ratio_short_square",
	"adaptation",
	"avg_isi",
	"f_i_curve_slope",
	"latency",
}

// IsColumn reports whether name is a known feature column
func IsColumn(name string) bool {
	for _, col := range Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Table assembles feature rows into an etable. Missing measurements are
// stored as NaN, which the aggregators treat as null.
func Table(rows []models.FeatureRow) *etable.Table {
	sch := etable.Schema{
		{ColSpecimenID, etensor.FLOAT64, nil, nil},
		{ColSpecies, etensor.STRING, nil, nil},
		{ColDendriteType, etensor.STRING, nil, nil},
	}
	for _, col := range Columns {
		sch = append(sch, etable.Column{col, etensor.FLOAT64, nil, nil})
	}

	dt := &etable.Table{}
	dt.SetMetaData("name", "EphysFeatures")
	dt.SetMetaData("desc", "intrinsic electrophysiology features per specimen")
	dt.SetMetaData("read-only", "true")
	dt.SetFromSchema(sch, len(rows))

	for i, r := range rows {
		dt.SetCellFloat(ColSpecimenID, i, float64(r.SpecimenID))
		dt.SetCellString(ColSpecies, i, r.Species)
		dt.SetCellString(ColDendriteType, i, r.DendriteType)
		for _, col := range Columns {
			dt.SetCellFloat(col, i, Value(r.Features, col))
		}
	}
	return dt
}

// Value returns the named feature from a record, or NaN when missing
func Value(f models.EphysFeatures, col string) float64 {
	var p *float64
	switch col {
	case "vrest":
		p = f.Vrest
	case "tau":
		p = f.Tau
	case "ri":
		p = f.Ri
	case "sag":
		p = f.Sag
	case "threshold_i_long_square":
		p = f.ThresholdILongSquare
	case "threshold_v_long_square":
		p = f.ThresholdVLongSquare
	case "peak_v_long_square":
		p = f.PeakVLongSquare
	case "fast_trough_v_long_square":
		p = f.FastTroughVLongSquare
	case "trough_v_long_square":
		p = f.TroughVLongSquare
	case "upstroke_downstroke_ratio_long_square":
		p = f.UpstrokeDownstrokeRatioLongSquare
	case "upstroke_downstroke_ratio_short_square":
		p = f.UpstrokeDownstrokeRatioShortSquare
	case "adaptation":
		p = f.Adaptation
	case "avg_isi":
		p = f.AvgISI
	case "f_i_curve_slope":
		p = f.FICurveSlope
	case "latency":
		p = f.Latency
	}
	if p == nil {
		return math.NaN()
	}
	return *p
}
