package extraction

import "github.com/joseph-ayodele/medreport/constants"

// ReferenceRange is the normal interval for one metric. A nil bound means unknown.
type ReferenceRange struct {
	Min  *float64
	Max  *float64
	Unit string
}

// Multipliers applied to a bound before a value counts as critical.
const (
	criticalLowFactor  = 0.8
	criticalHighFactor = 1.5
)

func ptr(f float64) *float64 { return &f }

// adult reference ranges; never mutated after init
var referenceRanges = map[string]ReferenceRange{
	"blood_glucose_fasting":      {Min: ptr(70), Max: ptr(100), Unit: "mg/dL"},
	"blood_glucose_postprandial": {Min: ptr(70), Max: ptr(140), Unit: "mg/dL"},
	"hba1c":                      {Min: ptr(4.0), Max: ptr(5.7), Unit: "%"},
	"total_cholesterol":          {Min: ptr(0), Max: ptr(200), Unit: "mg/dL"},
	"ldl_cholesterol":            {Min: ptr(0), Max: ptr(100), Unit: "mg/dL"},
	"hdl_cholesterol":            {Min: ptr(40), Max: ptr(60), Unit: "mg/dL"},
	"triglycerides":              {Min: ptr(0), Max: ptr(150), Unit: "mg/dL"},
	"bmi":                        {Min: ptr(18.5), Max: ptr(24.9), Unit: "kg/m²"},
	"systolic_bp":                {Min: ptr(90), Max: ptr(120), Unit: "mmHg"},
	"diastolic_bp":               {Min: ptr(60), Max: ptr(80), Unit: "mmHg"},
	"hemoglobin":                 {Min: ptr(12.0), Max: ptr(17.5), Unit: "g/dL"},
	"creatinine":                 {Min: ptr(0.6), Max: ptr(1.2), Unit: "mg/dL"},
	"uric_acid":                  {Min: ptr(2.4), Max: ptr(7.0), Unit: "mg/dL"},
	"tsh":                        {Min: ptr(0.4), Max: ptr(4.0), Unit: "mIU/L"},
	"vitamin_d":                  {Min: ptr(20), Max: ptr(50), Unit: "ng/mL"},
	"vitamin_b12":                {Min: ptr(200), Max: ptr(900), Unit: "pg/mL"},
}

func (r ReferenceRange) clone() ReferenceRange {
	out := ReferenceRange{Unit: r.Unit}
	if r.Min != nil {
		out.Min = ptr(*r.Min)
	}
	if r.Max != nil {
		out.Max = ptr(*r.Max)
	}
	return out
}

// LookupRange returns a copy of the reference range for key.
func LookupRange(key string) (ReferenceRange, bool) {
	r, ok := referenceRanges[key]
	if !ok {
		return ReferenceRange{}, false
	}
	return r.clone(), true
}

// ReferenceRanges returns a copy of the whole table.
func ReferenceRanges() map[string]ReferenceRange {
	out := make(map[string]ReferenceRange, len(referenceRanges))
	for k, r := range referenceRanges {
		out[k] = r.clone()
	}
	return out
}

// ClassifyStatus places value against [refMin, refMax]. Values exactly on a
// bound are normal; critical bands scale with the bound itself.
func ClassifyStatus(value float64, refMin, refMax *float64) constants.MetricStatus {
	if refMin == nil || refMax == nil {
		return constants.StatusUnknown
	}
	switch {
	case value < *refMin*criticalLowFactor:
		return constants.StatusCritical
	case value < *refMin:
		return constants.StatusLow
	case value > *refMax*criticalHighFactor:
		return constants.StatusCritical
	case value > *refMax:
		return constants.StatusHigh
	default:
		return constants.StatusNormal
	}
}
