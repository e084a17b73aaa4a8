package godigest_test

import (
	"testing"

	godigest "github.com/soundprediction/go-digest"
)

func TestPlanBudget(t *testing.T) {
	tests := []struct {
		name         string
		docSize      int
		targetRatio  float64
		ceilingRatio float64
		chunkCount   int
		wantTotal    int
		wantPerChunk int
		wantCeiling  int
	}{
		{
			name:         "Default ratios single call",
			docSize:      10000,
			chunkCount:   0,
			wantTotal:    5000,
			wantPerChunk: 0,
			wantCeiling:  5500,
		},
		{
			name:         "Default ratios with chunks",
			docSize:      10000,
			chunkCount:   5,
			wantTotal:    5000,
			wantPerChunk: 1000,
			wantCeiling:  5500,
		},
		{
			name:         "Custom ratios",
			docSize:      10000,
			targetRatio:  0.2,
			ceilingRatio: 0.25,
			chunkCount:   4,
			wantTotal:    2000,
			wantPerChunk: 500,
			wantCeiling:  2500,
		},
		{
			name:         "Tiny document hits total floor",
			docSize:      100,
			chunkCount:   0,
			wantTotal:    200,
			wantPerChunk: 0,
			wantCeiling:  200,
		},
		{
			name:         "Many chunks hit per-chunk floor",
			docSize:      1000,
			chunkCount:   100,
			wantTotal:    500,
			wantPerChunk: 50,
			wantCeiling:  550,
		},
		{
			name:         "Negative ratios fall back to defaults",
			docSize:      1000,
			targetRatio:  -1,
			ceilingRatio: -1,
			chunkCount:   0,
			wantTotal:    500,
			wantPerChunk: 0,
			wantCeiling:  550,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budget := godigest.PlanBudget(tt.docSize, tt.targetRatio, tt.ceilingRatio, tt.chunkCount)

			if budget.TotalTarget != tt.wantTotal {
				t.Errorf("Expected total target %d, got %d", tt.wantTotal, budget.TotalTarget)
			}
			if budget.PerChunkTarget != tt.wantPerChunk {
				t.Errorf("Expected per-chunk target %d, got %d", tt.wantPerChunk, budget.PerChunkTarget)
			}
			if budget.Ceiling != tt.wantCeiling {
				t.Errorf("Expected ceiling %d, got %d", tt.wantCeiling, budget.Ceiling)
			}
		})
	}
}

func TestPlanBudgetCeilingNotBelowTarget(t *testing.T) {
	budget := godigest.PlanBudget(10000, 0, 0, 3)

	if budget.Ceiling < budget.TotalTarget {
		t.Errorf("Ceiling %d is below total target %d", budget.Ceiling, budget.TotalTarget)
	}
}
