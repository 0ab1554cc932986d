package core

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
)

func TestNullableMean(t *testing.T) {
	tests := []struct {
		name   string
		values []null.Float
		want   null.Float
	}{
		{"empty", nil, null.Float{}},
		{"all null", []null.Float{{}, {}}, null.Float{}},
		{"skips null", []null.Float{null.FloatFrom(0.25), {}, null.FloatFrom(0.75)}, null.FloatFrom(0.5)},
		{"skips NaN", []null.Float{null.FloatFrom(math.NaN()), null.FloatFrom(0.5)}, null.FloatFrom(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NullableMean(tt.values)
			if got.Valid != tt.want.Valid || got.Float64 != tt.want.Float64 {
				t.Errorf("NullableMean = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSumTreatingNullAsZero(t *testing.T) {
	got := SumTreatingNullAsZero([]null.Int{null.IntFrom(100), {}, null.IntFrom(50)})
	if got != 150 {
		t.Errorf("sum = %d, want 150", got)
	}
}

func TestSafeRatio(t *testing.T) {
	if r := SafeRatio(50, 100); !r.Valid || r.Float64 != 0.5 {
		t.Errorf("SafeRatio(50, 100) = %v", r)
	}
	if r := SafeRatio(50, 0); r.Valid {
		t.Errorf("SafeRatio(50, 0) = %v, want null", r)
	}
	if r := SafeRatio(0, 10); !r.Valid || r.Float64 != 0 {
		t.Errorf("SafeRatio(0, 10) = %v, want 0", r)
	}
}
