package catalog

import "testing"

func TestNewCriteriaTrims(t *testing.T) {
	c := NewCriteria("  Nirvana  ", "\tNevermind\n", "   ")
	if c.Artist != "Nirvana" {
		t.Errorf("expected trimmed artist, got %q", c.Artist)
	}
	if c.Album != "Nevermind" {
		t.Errorf("expected trimmed album, got %q", c.Album)
	}
	if c.Track != "" {
		t.Errorf("expected whitespace-only track to be absent, got %q", c.Track)
	}
}

func TestCriteriaEmpty(t *testing.T) {
	if !NewCriteria("", "  ", "\t").Empty() {
		t.Error("whitespace-only criteria should be empty")
	}
	if NewCriteria("", "", "x").Empty() {
		t.Error("criteria with a track should not be empty")
	}
}

func TestCriteriaCase(t *testing.T) {
	tests := []struct {
		name                 string
		artist, album, track string
		want                 ResolutionCase
	}{
		{"none", "", "", "", CaseNone},
		{"track only", "", "", "Lithium", CaseTrackOnly},
		{"album only", "", "Nevermind", "", CaseAlbumOnly},
		{"artist only", "Nirvana", "", "", CaseArtistOnly},
		{"artist and album", "Nirvana", "Nevermind", "", CaseArtistAlbum},
		{"artist and track", "Nirvana", "", "Lithium", CaseArtistTrack},
		{"album and track", "", "Nevermind", "Lithium", CaseAlbumTrack},
		{"all three", "Nirvana", "Nevermind", "Lithium", CaseArtistAlbumTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCriteria(tt.artist, tt.album, tt.track).Case()
			if got != tt.want {
				t.Errorf("Case() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitlesEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"live", "Live", true},
		{"LIVE", "live", true},
		{" Live ", "Live", true},
		{"Live", "Live (Deluxe)", false},
		{"Live", "Liv", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := TitlesEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("TitlesEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
