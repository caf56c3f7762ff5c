package textcase

import "testing"

func TestConvert(t *testing.T) {
	tests := []struct {
		in   string
		mode Mode
		want string
	}{
		{"bohemian rhapsody", ModeTitle, "Bohemian Rhapsody"},
		{"BOHEMIAN RHAPSODY", ModeTitle, "Bohemian Rhapsody"},
		{"bohemian RHAPSODY", ModeSentence, "Bohemian rhapsody"},
		{"...hey jude", ModeSentence, "...Hey jude"},
		{"hey jude", ModeUpper, "HEY JUDE"},
		{"Hey Jude", ModeLower, "hey jude"},
		{"", ModeTitle, ""},
	}
	for _, tt := range tests {
		got, err := Convert(tt.in, tt.mode)
		if err != nil {
			t.Errorf("Convert(%q, %s) error: %v", tt.in, tt.mode, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Convert(%q, %s) = %q, want %q", tt.in, tt.mode, got, tt.want)
		}
	}
}

func TestConvertUnknownMode(t *testing.T) {
	if _, err := Convert("x", Mode("camel")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(" Title "); err != nil || mode != ModeTitle {
		t.Errorf("ParseMode(Title) = %v, %v", mode, err)
	}
	if _, err := ParseMode("camel"); err == nil {
		t.Error("expected error for unknown mode name")
	}
}
