package tender_test

import (
	"testing"

	"github.com/jonesrussell/tenderscan/internal/tender"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestClassify_Threshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    *int64
		tenderID string
		want     tender.Outcome
	}{
		{
			name:     "below threshold is kept",
			value:    int64Ptr(2_999_999),
			tenderID: "T1",
			want:     tender.OutcomeKeep,
		},
		{
			name:     "exactly at threshold is skipped",
			value:    int64Ptr(3_000_000),
			tenderID: "T1",
			want:     tender.OutcomeSkip,
		},
		{
			name:     "above threshold is skipped",
			value:    int64Ptr(5_000_000),
			tenderID: "T1",
			want:     tender.OutcomeSkip,
		},
		{
			name:     "nil value is kept",
			value:    nil,
			tenderID: "T1",
			want:     tender.OutcomeKeep,
		},
		{
			name:     "kept record without id is incomplete",
			value:    int64Ptr(100),
			tenderID: "",
			want:     tender.OutcomeIncomplete,
		},
		{
			name:     "nil value without id is incomplete",
			value:    nil,
			tenderID: "",
			want:     tender.OutcomeIncomplete,
		},
		{
			name:     "skipped record without id is still skip",
			value:    int64Ptr(9_000_000),
			tenderID: "",
			want:     tender.OutcomeSkip,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &tender.Record{TenderID: tt.tenderID, Value: tt.value}
			got := tender.Classify(rec, tender.DefaultValueThreshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "keep", tender.OutcomeKeep.String())
	assert.Equal(t, "skip", tender.OutcomeSkip.String())
	assert.Equal(t, "incomplete", tender.OutcomeIncomplete.String())
}
