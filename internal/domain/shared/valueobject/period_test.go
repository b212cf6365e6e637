package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	tests := []struct {
		name    string
		month   int
		year    int
		wantErr bool
	}{
		{"january", 1, 2025, false},
		{"december", 12, 2025, false},
		{"month zero", 0, 2025, true},
		{"month thirteen", 13, 2025, true},
		{"missing year", 3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPeriod(tt.month, tt.year)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPeriod_String(t *testing.T) {
	p, err := NewPeriod(3, 2025)
	require.NoError(t, err)
	assert.Equal(t, "March 2025", p.String())
	assert.Equal(t, Period{Month: 7, Year: 2024}, PeriodOf(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
}
