package constants

// Ecosystem types accepted at ingestion.
const (
	Mangrove = "MANGROVE"
	Seagrass = "SEAGRASS"
)

// CreditRates is the tCO2e issued per approved submission, by ecosystem type.
// Assigned once at submission creation and never recalculated.
var CreditRates = map[string]float64{
	Mangrove: 1.5,
	Seagrass: 0.8,
}

// IsValidEcosystem returns true if t is a supported ecosystem type.
func IsValidEcosystem(t string) bool {
	_, ok := CreditRates[t]
	return ok
}
