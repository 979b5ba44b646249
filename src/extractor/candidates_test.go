package extractor

import "testing"

func TestCaptionTrackScore(t *testing.T) {
	tests := []struct {
		name  string
		track CaptionTrack
		want  int
	}{
		{
			name:  "english manual",
			track: CaptionTrack{LanguageCode: "en", Name: "English", Kind: ""},
			want:  13,
		},
		{
			name:  "english auto generated",
			track: CaptionTrack{LanguageCode: "en", Name: "English (auto-generated)", Kind: "asr"},
			want:  8,
		},
		{
			name:  "french manual",
			track: CaptionTrack{LanguageCode: "fr", Name: "Français", Kind: ""},
			want:  6,
		},
		{
			name:  "regional english",
			track: CaptionTrack{LanguageCode: "en-GB", Name: "English (United Kingdom)", Kind: ""},
			want:  13,
		},
		{
			name:  "bare track metadata",
			track: CaptionTrack{LanguageCode: "de"},
			want:  6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectTrackPrefersManualEnglish(t *testing.T) {
	tracks := []CaptionTrack{
		{LanguageCode: "en", Name: "English", Kind: ""},
		{LanguageCode: "en", Name: "English (auto-generated)", Kind: "asr"},
		{LanguageCode: "fr", Name: "Français", Kind: ""},
	}

	best, ok := SelectTrack(tracks)
	if !ok {
		t.Fatal("expected a selection")
	}
	if best.LanguageCode != "en" || best.Kind != "" {
		t.Fatalf("selected %+v, want manual english track", best)
	}
}

func TestSelectTrackTieBreaksOnDiscoveryOrder(t *testing.T) {
	tracks := []CaptionTrack{
		{LanguageCode: "en", Name: "English", Kind: ""},
		{LanguageCode: "en", Name: "English", Kind: ""},
	}
	tracks[0].BaseURL = "first"
	tracks[1].BaseURL = "second"

	best, _ := SelectTrack(tracks)
	if best.BaseURL != "first" {
		t.Fatalf("tie should go to the first discovered track, got %s", best.BaseURL)
	}
}

func TestSelectTrackEmpty(t *testing.T) {
	if _, ok := SelectTrack(nil); ok {
		t.Fatal("empty candidate list should not select")
	}
}
