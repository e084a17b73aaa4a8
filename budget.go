package godigest

// Budget is the size plan for one summarization request, derived once from
// the document length. All sizes are in characters.
type Budget struct {
	// TotalTarget is the desired length of the final summary.
	TotalTarget int
	// PerChunkTarget is the desired length of each partial summary.
	// Zero when the request is not chunked.
	PerChunkTarget int
	// Ceiling is the hard upper bound enforced by the final compressor.
	Ceiling int
}

const (
	// DefaultTargetRatio is the default summary-to-document size ratio.
	DefaultTargetRatio = 0.50
	// DefaultCeilingRatio is the default hard upper bound ratio.
	DefaultCeilingRatio = 0.55

	// totalTargetFloor avoids degenerate targets on tiny inputs.
	totalTargetFloor = 200
	// perChunkTargetFloor keeps per-chunk budgets from becoming unreasonably small.
	perChunkTargetFloor = 50
)

// PlanBudget computes the size plan for a document of docSize characters
// split into chunkCount chunks. Ratios at or below zero fall back to the
// defaults. Pass chunkCount zero for the single-call path.
func PlanBudget(docSize int, targetRatio, ceilingRatio float64, chunkCount int) Budget {
	if targetRatio <= 0 {
		targetRatio = DefaultTargetRatio
	}
	if ceilingRatio <= 0 {
		ceilingRatio = DefaultCeilingRatio
	}

	total := int(float64(docSize) * targetRatio)
	if total < totalTargetFloor {
		total = totalTargetFloor
	}

	ceiling := int(float64(docSize) * ceilingRatio)
	if ceiling < totalTargetFloor {
		ceiling = totalTargetFloor
	}

	budget := Budget{
		TotalTarget: total,
		Ceiling:     ceiling,
	}

	if chunkCount > 0 {
		perChunk := total / chunkCount
		if perChunk < perChunkTargetFloor {
			perChunk = perChunkTargetFloor
		}
		budget.PerChunkTarget = perChunk
	}

	return budget
}
