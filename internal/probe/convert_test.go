package probe

import "testing"

func TestMixToMonoAveragesChannels(t *testing.T) {
	// 2 channels, 3 frames: (L,R) pairs
	interleaved := []float32{1.0, -1.0, 0.5, 0.5, 0.2, 0.8}
	mono := mixToMono(interleaved, 2)

	want := []float32{0.0, 0.5, 0.5}
	if len(mono) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(mono))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("frame %d: want %v got %v", i, want[i], mono[i])
		}
	}
}

func TestMixToMonoPassthroughForMono(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3}
	out := mixToMono(input, 1)
	if len(out) != len(input) {
		t.Fatalf("expected passthrough, got len %d", len(out))
	}
}

func TestConvert16BitToFloat32(t *testing.T) {
	// little-endian int16: 0, 32767, -32768
	data := []byte{
		0x00, 0x00, // 0
		0xFF, 0x7F, // 32767
		0x00, 0x80, // -32768
	}
	out := convert16BitToFloat32(data)
	if len(out) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(out))
	}
	if out[0] != 0 {
		t.Errorf("sample 0: want 0, got %v", out[0])
	}
	if out[1] <= 0.99 || out[1] > 1.0 {
		t.Errorf("sample 1: want ~1.0, got %v", out[1])
	}
	if out[2] != -1.0 {
		t.Errorf("sample 2: want -1.0, got %v", out[2])
	}
}
