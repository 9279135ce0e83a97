package probe

import (
	"reflect"
	"testing"
)

func TestNormalizeMergesDuplicates(t *testing.T) {
	caps := []Capability{
		{Format: FormatYUYV, Width: 1280, Height: 720, Rates: []Rate{{30, 1}, {10, 1}}},
		{Format: FormatYUYV, Width: 1280, Height: 720, Rates: []Rate{{30, 1}, {15, 1}}},
	}

	got := Normalize(caps)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged capability, got %d", len(got))
	}

	wantRates := []Rate{{30, 1}, {15, 1}, {10, 1}}
	if !reflect.DeepEqual(got[0].Rates, wantRates) {
		t.Errorf("merged rates = %v, want %v", got[0].Rates, wantRates)
	}
}

func TestNormalizeOrdering(t *testing.T) {
	caps := []Capability{
		{Format: FormatMJPEG, Width: 1920, Height: 1080, Rates: []Rate{{30, 1}}},
		{Format: FormatYUYV, Width: 640, Height: 480, Rates: []Rate{{30, 1}}},
		{Format: FormatYUYV, Width: 1920, Height: 1080, Rates: []Rate{{30, 1}}},
		{Format: FormatNV12, Width: 1920, Height: 1080, Rates: []Rate{{60, 1}}},
	}

	got := Normalize(caps)

	// YUYV outranks MJPG outranks NV12; within a format larger
	// resolutions come first.
	wantOrder := []struct {
		format PixelFormat
		width  uint32
	}{
		{FormatYUYV, 1920},
		{FormatYUYV, 640},
		{FormatMJPEG, 1920},
		{FormatNV12, 1920},
	}

	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d capabilities, got %d", len(wantOrder), len(got))
	}
	for i, w := range wantOrder {
		if got[i].Format != w.format || got[i].Width != w.width {
			t.Errorf("position %d: got %s %dpx, want %s %dpx",
				i, got[i].Format, got[i].Width, w.format, w.width)
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	caps := []Capability{
		{Format: FormatMJPEG, Width: 1280, Height: 720, Rates: []Rate{{60, 1}, {30, 1}}},
		{Format: FormatYUYV, Width: 1920, Height: 1080, Rates: []Rate{{5, 1}}},
		{Format: FormatYUYV, Width: 1920, Height: 1080, Rates: []Rate{{10, 1}, {5, 1}}},
	}

	first := Normalize(caps)
	for i := 0; i < 10; i++ {
		if again := Normalize(caps); !reflect.DeepEqual(first, again) {
			t.Fatalf("normalization not stable: %v vs %v", first, again)
		}
	}
}

func TestDedupeRatesExactRationals(t *testing.T) {
	rates := dedupeRates([]Rate{{30, 1}, {30000, 1001}, {30, 1}, {0, 0}})

	if len(rates) != 2 {
		t.Fatalf("expected 2 distinct rates, got %v", rates)
	}
	// 30/1 > 30000/1001
	if rates[0] != (Rate{30, 1}) || rates[1] != (Rate{30000, 1001}) {
		t.Errorf("rates = %v, want [30/1 30000/1001]", rates)
	}
}

func TestPixelFormatPriority(t *testing.T) {
	if FormatYUYV.PriorityIndex() >= FormatMJPEG.PriorityIndex() {
		t.Error("YUYV should outrank MJPG")
	}
	if FormatMJPEG.PriorityIndex() >= FormatNV12.PriorityIndex() {
		t.Error("MJPG should outrank NV12")
	}
	if PixelFormat("GREY").PriorityIndex() != len(formatPriority) {
		t.Error("unknown formats should sort last")
	}
}

func TestCapabilitySetLookup(t *testing.T) {
	set := &CapabilitySet{
		Capabilities: []Capability{
			{Format: FormatYUYV, Width: 1920, Height: 1080, Rates: []Rate{{30, 1}}},
		},
	}

	if _, ok := set.Lookup(FormatYUYV, 1920, 1080); !ok {
		t.Error("expected lookup hit for present capability")
	}
	if _, ok := set.Lookup(FormatMJPEG, 1920, 1080); ok {
		t.Error("expected lookup miss for absent format")
	}
}
