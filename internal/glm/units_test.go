package glm

import (
	"math"
	"testing"
)

// TestDBToPercent_Bounds tests saturation at the scale edges.
func TestDBToPercent_Bounds(t *testing.T) {
	if got := DBToPercent(MinVolumeDB); got != 0 {
		t.Errorf("DBToPercent(MinVolumeDB) = %v, want 0", got)
	}
	if got := DBToPercent(MinVolumeDB - 50); got != 0 {
		t.Errorf("DBToPercent below floor = %v, want 0", got)
	}
	if got := DBToPercent(0); got != 100 {
		t.Errorf("DBToPercent(0) = %v, want 100", got)
	}
	if got := DBToPercent(20); got != 100 {
		t.Errorf("DBToPercent above ceiling = %v, want 100 (clamped)", got)
	}
}

// TestPercentToDB_Bounds tests the <=0 and NaN handling plus clamping.
func TestPercentToDB_Bounds(t *testing.T) {
	if got := PercentToDB(0); got != MinVolumeDB {
		t.Errorf("PercentToDB(0) = %v, want MinVolumeDB", got)
	}
	if got := PercentToDB(-5); got != MinVolumeDB {
		t.Errorf("PercentToDB(-5) = %v, want MinVolumeDB", got)
	}
	if got := PercentToDB(math.NaN()); got != MinVolumeDB {
		t.Errorf("PercentToDB(NaN) = %v, want MinVolumeDB", got)
	}
	if got := PercentToDB(100); got != 0 {
		t.Errorf("PercentToDB(100) = %v, want 0", got)
	}
	if got := PercentToDB(200); got != MaxVolumeDB {
		t.Errorf("PercentToDB(200) = %v, want MaxVolumeDB (clamped)", got)
	}
}

// TestPercentDB_RoundTrip checks dbToPercent(percentToDb(p)) ~= p across the
// usable display range.
func TestPercentDB_RoundTrip(t *testing.T) {
	for p := 1.0; p <= 100.0; p += 0.5 {
		got := DBToPercent(PercentToDB(p))
		if math.Abs(got-p) > 1e-9 {
			t.Errorf("round trip %v -> %v", p, got)
		}
	}
}

// TestPercentToDB_NeverNaN checks conversions can't leak NaN/Inf to callers.
func TestPercentToDB_NeverNaN(t *testing.T) {
	inputs := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 0, 1e-300, 50, 100, 1e300}
	for _, in := range inputs {
		db := PercentToDB(in)
		if math.IsNaN(db) || math.IsInf(db, 0) {
			t.Errorf("PercentToDB(%v) = %v, want finite", in, db)
		}
		pct := DBToPercent(db)
		if math.IsNaN(pct) || pct < 0 || pct > 100 {
			t.Errorf("DBToPercent(%v) = %v, want within [0,100]", db, pct)
		}
	}
}
