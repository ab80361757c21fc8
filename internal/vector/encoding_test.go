package vector

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 3.75, 0, 1e-7}

	decoded, err := Decode(Encode(vec))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(decoded) != len(vec) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(vec))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("decoded[%d] = %v, want %v", i, decoded[i], vec[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	b := Encode(nil)
	if len(b) != 0 {
		t.Errorf("Encode(nil) length = %d, want 0", len(b))
	}
	vec, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(vec) != 0 {
		t.Errorf("Decode of empty blob length = %d, want 0", len(vec))
	}
}

func TestDecodeInvalidLength(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for blob length not a multiple of 4")
	}
}
