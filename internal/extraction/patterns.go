package extraction

// MetricPattern ties a metric key to the regex that finds it. Group 1 is the
// value, group 2 (optional) the unit. Matching is case-insensitive.
type MetricPattern struct {
	Key     string
	Name    string
	Pattern string
}

// table order is the order metrics appear in a Result
var metricPatterns = []MetricPattern{
	{"blood_glucose_fasting", "Blood Glucose (Fasting)",
		`(?:fasting\s+)?(?:blood\s+)?(?:glucose|sugar|FBS|FPG)\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll]|mmol/L)?`},
	{"blood_glucose_postprandial", "Blood Glucose (Post-Prandial)",
		`(?:post.?prandial|PP|2hr\s+PP|random)\s+(?:blood\s+)?(?:glucose|sugar|BS)\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll]|mmol/L)?`},
	{"hba1c", "HbA1c",
		`(?:HbA1c|Hemoglobin\s+A1c|A1C)\s*[:\-]?\s*([\d.]+)\s*(%)?`},
	{"total_cholesterol", "Total Cholesterol",
		`(?:total\s+)?cholesterol\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll])?`},
	{"ldl_cholesterol", "LDL Cholesterol",
		`LDL(?:\s*cholesterol)?\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll])?`},
	{"hdl_cholesterol", "HDL Cholesterol",
		`HDL(?:\s*cholesterol)?\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll])?`},
	{"triglycerides", "Triglycerides",
		`triglycerides?\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll])?`},
	{"bmi", "BMI",
		`BMI\s*[:\-]?\s*([\d.]+)\s*(kg/m[²2])?`},
	{"systolic_bp", "Systolic Blood Pressure",
		`(?:blood\s+pressure|BP)\s*[:\-]?\s*([\d.]+)\s*/\s*[\d.]+\s*(mmHg)?`},
	{"diastolic_bp", "Diastolic Blood Pressure",
		`(?:blood\s+pressure|BP)\s*[:\-]?\s*[\d.]+\s*/\s*([\d.]+)\s*(mmHg)?`},
	{"hemoglobin", "Hemoglobin",
		`(?:hemoglobin|Hb|Hgb)\s*[:\-]?\s*([\d.]+)\s*(g/d[Ll])?`},
	{"creatinine", "Creatinine",
		`creatinine\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll])?`},
	{"uric_acid", "Uric Acid",
		`uric\s+acid\s*[:\-]?\s*([\d.]+)\s*(mg/d[Ll])?`},
	{"tsh", "TSH",
		`TSH(?:\s*\(.*?\))?\s*[:\-]?\s*([\d.]+)\s*(mIU/L|μIU/mL)?`},
	{"vitamin_d", "Vitamin D",
		`(?:vitamin\s+D|25-OH\s+Vitamin\s+D|25-hydroxyvitamin\s+D)\s*[:\-]?\s*([\d.]+)\s*(ng/mL|nmol/L)?`},
	{"vitamin_b12", "Vitamin B12",
		`(?:vitamin\s+B12?|cobalamin|cyanocobalamin)\s*[:\-]?\s*([\d.]+)\s*(pg/mL|pmol/L)?`},
}

// MetricPatterns returns a copy of the built-in pattern table.
func MetricPatterns() []MetricPattern {
	out := make([]MetricPattern, len(metricPatterns))
	copy(out, metricPatterns)
	return out
}

// note classification keywords, checked in this priority order
var (
	prescriptionKeywords = []string{"rx", "prescription", "medication", "tablet", "capsule"}
	diagnosisKeywords    = []string{"diagnosis", "diagnosed", "condition"}
	doctorKeywords       = []string{"doctor", "physician", "dr.", "advised", "recommendation"}
)

// a section whose content mentions any of these is kept as a note
var noteKeywords = []string{
	"doctor", "physician", "dr.", "notes", "recommendation", "impression",
	"finding", "diagnosis", "advised", "prescription", "medication", "rx",
	"treatment", "follow-up", "prognosis",
}

// a section whose heading contains any of these is kept as a note
var noteHeadings = []string{
	"DOCTOR_NOTES", "RECOMMENDATIONS", "DIAGNOSIS", "MEDICATIONS",
	"PRESCRIPTIONS", "IMPRESSIONS", "FINDINGS", "SUMMARY", "CONCLUSION", "GENERAL",
}
