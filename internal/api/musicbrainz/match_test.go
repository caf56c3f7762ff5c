package musicbrainz

import (
	"reflect"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hey Jude", "hey jude"},
		{"Hey Jude (Remastered 2009)", "hey jude"},
		{"Hey Jude [Mono Mix] (Remastered)", "hey jude"},
		{"Don't Stop Me Now", "dont stop me now"},
		{"Café Müller", "cafe muller"},
		{"AC/DC - Back In Black", "ac dc back in black"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{"Hey Jude (Remastered)", "Don't Stop Me Now", "Café Müller"}
	for _, in := range inputs {
		once := NormalizeTitle(in)
		if twice := NormalizeTitle(once); twice != once {
			t.Errorf("NormalizeTitle not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestTitlesMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"The Beatles - Hey Jude (Remastered)", "hey jude", true},
		{"Hey Jude", "Hey Jude", true},
		{"Hey Jude", "Let It Be", false},
		{"", "Hey Jude", false},
		{"Bohemian Rhapsody", "bohemian rhapsody (live)", true},
	}
	for _, tt := range tests {
		if got := TitlesMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("TitlesMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatchTrackDiscMajorOrder(t *testing.T) {
	client := CreateMockClient()
	release := &Release{
		Media: []Media{
			{Position: 1, Tracks: []MediaTrack{
				{Title: "Opener", Position: 1},
				{Title: "Hey Jude", Position: 2},
			}},
			{Position: 2, Tracks: []MediaTrack{
				{Title: "Hey Jude (Live)", Position: 1},
			}},
		},
	}

	track := client.MatchTrack(release, "hey jude")
	if track == nil {
		t.Fatal("expected a match")
	}
	if track.DiscNumber != 1 || track.Position != 2 {
		t.Errorf("matched disc %d track %d, want disc 1 track 2", track.DiscNumber, track.Position)
	}

	if client.MatchTrack(release, "no such song") != nil {
		t.Error("expected no match for unknown title")
	}
}

func TestTopTagNames(t *testing.T) {
	genres := []TagCount{
		{Name: "rock", Count: 5},
		{Name: "pop", Count: 9},
		{Name: "blues", Count: 2},
		{Name: "soul", Count: 7},
	}
	want := []string{"pop", "soul", "rock"}
	if got := topTagNames(genres, nil); !reflect.DeepEqual(got, want) {
		t.Errorf("topTagNames = %v, want %v", got, want)
	}

	// Folksonomy tags are only consulted when genres are empty.
	tags := []TagCount{{Name: "indie", Count: 1}}
	if got := topTagNames(nil, tags); !reflect.DeepEqual(got, []string{"indie"}) {
		t.Errorf("topTagNames fallback = %v", got)
	}
	if got := topTagNames(nil, nil); got != nil {
		t.Errorf("topTagNames empty = %v, want nil", got)
	}
}
