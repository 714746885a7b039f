package entities

// ProcedureSizeRecord holds the procedure-volume-vs-size measurement for one
// facility. Ratio is ProcedureCount divided by SizeProxy; IsOutlier is set
// only after population-wide ranking.
type ProcedureSizeRecord struct {
	Name           string
	FacilityType   string
	ProcedureCount int
	SizeProxy      float64
	Ratio          float64
	IsOutlier      bool
}

// OutlierResult pairs a record with its measurement.
type OutlierResult struct {
	Facility *Facility
	Record   ProcedureSizeRecord
}
