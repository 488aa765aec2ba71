package ports

// Normalizer defines the interface for text normalization.
type Normalizer interface {
	Normalize(text string) string
}

// UnitStandardizer maps any spelling of a unit onto its canonical label.
type UnitStandardizer interface {
	Standardize(unit string) string
}
