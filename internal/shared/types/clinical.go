package types

// VitalSigns holds a single set of measured vitals. Zero values mean the
// measurement was not taken.
type VitalSigns struct {
	BloodPressureSystolic  int     `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic int     `json:"blood_pressure_diastolic,omitempty"`
	HeartRate              int     `json:"heart_rate,omitempty"`
	Temperature            float64 `json:"temperature,omitempty"`
	RespiratoryRate        int     `json:"respiratory_rate,omitempty"`
	OxygenSaturation       int     `json:"oxygen_saturation,omitempty"`
}

// PatientContext is the de-identified clinical context a pipeline run
// operates on. It never carries direct identifiers.
type PatientContext struct {
	Age                int         `json:"age"`
	Sex                string      `json:"sex,omitempty"`
	ChiefComplaint     string      `json:"chief_complaint"`
	Symptoms           []string    `json:"symptoms,omitempty"`
	Vitals             *VitalSigns `json:"vitals,omitempty"`
	Allergies          []string    `json:"allergies,omitempty"`
	ChronicConditions  []string    `json:"chronic_conditions,omitempty"`
	CurrentMedications []string    `json:"current_medications,omitempty"`
}

// Medication is a single proposed medication from an AI recommendation.
type Medication struct {
	Name        string `json:"name"`
	GenericName string `json:"generic_name,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Route       string `json:"route,omitempty"`
}

// Recommendation is the parsed AI treatment recommendation handed to the
// validation pipeline. Generation itself happens outside this service.
type Recommendation struct {
	Medications []Medication `json:"medications"`
	Rationale   string       `json:"rationale,omitempty"`
	Confidence  float64      `json:"confidence,omitempty"`
	ModelUsed   string       `json:"model_used,omitempty"`
}
