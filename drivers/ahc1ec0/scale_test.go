package ahc1ec0

import "testing"

func TestProfileScalePipeline(t *testing.T) {
	cases := []struct {
		name string
		p    Profile
		raw  int64
		want int64
	}{
		{
			name: "divider only",
			p:    Profile{R1: 1912, R2: 1000},
			raw:  1000,
			want: 1000 * 2912 / 1000 * 10,
		},
		{
			name: "resolution only",
			p:    Profile{Resolution: 2929},
			raw:  102300,
			want: 102300 * 2929 / 1000 / 1000 * 10,
		},
		{
			// When both paths are set the resolution result replaces the
			// divider result entirely; with integer truncation a small
			// sample collapses to zero even though the divider path would
			// have reported 2910.
			name: "resolution replaces divider",
			p:    Profile{Resolution: 2929, R1: 1912, R2: 1000},
			raw:  100,
			want: 0,
		},
		{
			name: "shipped constants full scale",
			p:    Profile{Resolution: 2929, R1: 1912, R2: 1000},
			raw:  1023 * 100, // max code, x1 rail
			want: 102300 * 2929 / 1000 / 1000 * 10,
		},
		{
			name: "offset adds in hundredths",
			p:    Profile{Offset: 5},
			raw:  7,
			want: 5 * 100 * 10,
		},
		{
			name: "all zero constants pass nothing",
			p:    Profile{},
			raw:  12345,
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.scale(tc.raw); got != tc.want {
				t.Fatalf("scale(%d) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestProfileByIndex(t *testing.T) {
	for i := 0; i < ProfileCount(); i++ {
		p, err := ProfileByIndex(i)
		if err != nil {
			t.Fatalf("ProfileByIndex(%d): %v", i, err)
		}
		if len(p.Ins) == 0 || len(p.Temps) == 0 {
			t.Fatalf("profile %d exposes no channels: %+v", i, p)
		}
	}
	for _, i := range []int{-1, ProfileCount()} {
		if _, err := ProfileByIndex(i); err == nil {
			t.Errorf("ProfileByIndex(%d) accepted, want error", i)
		}
	}
}

func TestProfileChannelLists(t *testing.T) {
	tmpl, err := ProfileByIndex(int(ProfileTemplate))
	if err != nil {
		t.Fatal(err)
	}
	if len(tmpl.Ins) != 5 {
		t.Fatalf("template profile exposes %d in channels, want 5", len(tmpl.Ins))
	}
	prvr4, err := ProfileByIndex(int(ProfilePRVR4))
	if err != nil {
		t.Fatal(err)
	}
	if len(prvr4.Temps) != 2 {
		t.Fatalf("prvr4 profile exposes %d temp channels, want 2", len(prvr4.Temps))
	}
}
