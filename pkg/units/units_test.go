package units

import "testing"

func TestTimeCeilSeconds(t *testing.T) {
	cases := []struct {
		in   Time
		want int64
	}{
		{0, 0},
		{1, 1},
		{1_000_000, 1},
		{1_000_001, 2},
		{2_500_000, 3},
	}
	for _, c := range cases {
		if got := c.in.CeilSeconds(); got != c.want {
			t.Errorf("Time(%d).CeilSeconds() = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTimeSeconds(t *testing.T) {
	if got := Time(1_500_000).Seconds(); got != 1.5 {
		t.Errorf("Seconds() = %v, want 1.5", got)
	}
}

func TestSpaceRlimitUnitRoundtrip(t *testing.T) {
	s := SpaceFromBytes(8 * 1024 * 1024)
	u := s.RlimitUnit()
	back := FromRlimitUnit(u)
	if back != s {
		t.Errorf("roundtrip: got %d want %d", back, s)
	}
}

func TestSpaceRlimitUnitZero(t *testing.T) {
	if got := Space(0).RlimitUnit(); got != 0 {
		t.Errorf("zero space should produce unit 0, got %d", got)
	}
}
