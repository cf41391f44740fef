package retimer

import (
	"errors"
	"testing"
)

func TestHandleName(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{0, "retimer0"},
		{3, "retimer3"},
		{42, "retimer42"},
	}

	for _, tt := range tests {
		if got := HandleName(tt.id); got != tt.want {
			t.Errorf("HandleName(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestParseHandleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"zero", "retimer0", 0, false},
		{"multi digit", "retimer42", 42, false},
		{"leading zeros", "retimer007", 7, false},
		{"prefix only", "retimer", 0, true},
		{"wrong prefix", "timer3", 0, true},
		{"negative", "retimer-1", 0, true},
		{"trailing junk", "retimer3x", 0, true},
		{"plus sign", "retimer+3", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHandleName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedName) {
					t.Fatalf("ParseHandleName(%q) error = %v, want ErrMalformedName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHandleName(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHandleName(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestHandleNameRoundTrip(t *testing.T) {
	for _, id := range []int{0, 1, 9, 10, 99, 1000} {
		got, err := ParseHandleName(HandleName(id))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", id, err)
		}
		if got != id {
			t.Errorf("round trip of %d = %d", id, got)
		}
	}
}
