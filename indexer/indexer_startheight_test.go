package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStartHeight(t *testing.T) {
	tests := []struct {
		name        string
		dbNext      int64
		chainHead   int64
		explicitSet bool
		latest      bool
		desired     int64
		expected    int64
	}{
		{"unset resumes from db", 100, 150, false, false, 0, 100},
		{"latest jumps to head", 100, 150, true, true, 0, 150},
		{"explicit below db clamps to db", 200, 500, true, false, 150, 200},
		{"explicit above head clamps to head", 0, 123, true, false, 999, 123},
		{"explicit within range", 10, 100, true, false, 42, 42},
		{"negative clamps to db", 5, 100, true, false, -10, 5},
		{"latest never rewinds", 101, 100, true, true, 0, 101},
		{"explicit above head never rewinds", 101, 100, true, false, 150, 101},
		{"explicit below db past head", 101, 100, true, false, 50, 101},
		{"latest equal to db next", 100, 100, true, true, 0, 100},
		{"unset past head waits at db", 101, 100, false, false, 0, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeStartHeight(tt.dbNext, tt.chainHead, tt.explicitSet, tt.latest, tt.desired)
			assert.Equal(t, tt.expected, got)
		})
	}
}
