package paginate

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 1000, 1, 100},
	}
	for _, c := range cases {
		p, l := Normalize(c.page, c.limit)
		if p != c.wantPage || l != c.wantLimit {
			t.Errorf("Normalize(%d, %d) = (%d, %d), want (%d, %d)",
				c.page, c.limit, p, l, c.wantPage, c.wantLimit)
		}
	}
}

func TestSkip(t *testing.T) {
	if got := Skip(1, 20); got != 0 {
		t.Errorf("Skip(1, 20) = %d, want 0", got)
	}
	if got := Skip(3, 25); got != 50 {
		t.Errorf("Skip(3, 25) = %d, want 50", got)
	}
	if got := Skip(0, 0); got != 0 {
		t.Errorf("Skip(0, 0) = %d, want 0", got)
	}
}

func TestNewComputesTotalPages(t *testing.T) {
	cases := []struct {
		total     int64
		limit     int
		wantPages int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{101, 20, 6},
	}
	for _, c := range cases {
		pg := New(1, c.limit, c.total)
		if pg.TotalPages != c.wantPages {
			t.Errorf("New(1, %d, %d).TotalPages = %d, want %d",
				c.limit, c.total, pg.TotalPages, c.wantPages)
		}
	}
}
