package validation

import (
	"context"
	"fmt"
)

// RowCountCheck holds the result of a row count comparison.
type RowCountCheck struct {
	SourceCount   int64  `json:"source_count"`
	ExpectedCount int64  `json:"expected_count"`
	TargetCount   int64  `json:"target_count"`
	Match         bool   `json:"match"`
	Message       string `json:"message,omitempty"`
}

// validateRowCount compares the source row count of table, less the rows
// dropped on purpose, with the destination rows belonging to codes.
func (v *Validator) validateRowCount(ctx context.Context, table string, codes []string) (*RowCountCheck, error) {
	sourceCount, err := v.Source.RowCount(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("counting source rows for %s: %w", table, err)
	}

	targetCount, err := v.Target.CountByBuilding(ctx, table, codes)
	if err != nil {
		return nil, fmt.Errorf("counting destination rows for %s: %w", table, err)
	}

	expected := sourceCount - int64(v.Dropped[table])
	check := &RowCountCheck{
		SourceCount:   sourceCount,
		ExpectedCount: expected,
		TargetCount:   targetCount,
		Match:         expected == targetCount,
	}

	if !check.Match {
		check.Message = fmt.Sprintf("count mismatch: expected=%d, destination=%d (diff=%d)",
			expected, targetCount, expected-targetCount)
	}

	return check, nil
}
