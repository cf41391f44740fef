package retimer

import (
	"bytes"
	"testing"
)

func TestReadLabelConfigured(t *testing.T) {
	src := newFakeSource()
	src.setString("/ports/0", "label", "east-link")

	reg := NewRegistry(src, 0)
	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	buf := make([]byte, 64)
	n := reg.ReadLabel(h, buf)

	if n != 10 {
		t.Errorf("ReadLabel() = %d, want 10", n)
	}
	want := []byte("east-link\n\x00")
	if !bytes.Equal(buf[:11], want) {
		t.Errorf("buffer = %q, want %q", buf[:11], want)
	}
}

func TestReadLabelFallback(t *testing.T) {
	tests := []struct {
		name  string
		setup func(src *fakeSource)
	}{
		{"property absent", func(*fakeSource) {}},
		{"value is bare terminator", func(src *fakeSource) {
			src.setRaw("/ports/0", "label", []byte{0})
		}},
		{"value empty", func(src *fakeSource) {
			src.setRaw("/ports/0", "label", nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			tt.setup(src)

			reg := NewRegistry(src, 0)
			h, err := reg.Register(&Parent{Node: "/ports/0"})
			if err != nil {
				t.Fatalf("Register() error: %v", err)
			}

			buf := make([]byte, 64)
			n := reg.ReadLabel(h, buf)

			if n != 8 {
				t.Errorf("ReadLabel() = %d, want 8", n)
			}
			want := []byte("unknown\n\x00")
			if !bytes.Equal(buf[:9], want) {
				t.Errorf("buffer = %q, want %q", buf[:9], want)
			}
		})
	}
}

func TestReadLabelNilSource(t *testing.T) {
	reg := NewRegistry(nil, 0)
	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	buf := make([]byte, 16)
	if n := reg.ReadLabel(h, buf); n != 8 {
		t.Errorf("ReadLabel() = %d, want 8", n)
	}
	if got := string(buf[:8]); got != "unknown\n" {
		t.Errorf("buffer = %q, want %q", got, "unknown\n")
	}
}

func TestReadLabelTruncation(t *testing.T) {
	src := newFakeSource()
	src.setString("/ports/0", "label", "east-link")

	reg := NewRegistry(src, 0)
	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	// Buffer too small for the full attribute: output truncates but stays
	// NUL-terminated.
	buf := make([]byte, 5)
	n := reg.ReadLabel(h, buf)
	if n != 4 {
		t.Errorf("ReadLabel() = %d, want 4", n)
	}
	if !bytes.Equal(buf, []byte("east\x00")) {
		t.Errorf("buffer = %q, want %q", buf, "east\x00")
	}

	if n := reg.ReadLabel(h, nil); n != 0 {
		t.Errorf("ReadLabel(nil buffer) = %d, want 0", n)
	}
}

func TestLabelString(t *testing.T) {
	src := newFakeSource()
	src.setString("/ports/0", "label", "east-link")

	reg := NewRegistry(src, 0)
	configured, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	bare, err := reg.Register(&Parent{Node: "/ports/1"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if got := reg.Label(configured); got != "east-link" {
		t.Errorf("Label() = %q, want %q", got, "east-link")
	}
	if got := reg.Label(bare); got != "unknown" {
		t.Errorf("Label() = %q, want %q", got, "unknown")
	}
}
