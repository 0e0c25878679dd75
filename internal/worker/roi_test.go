package worker

import "testing"

func TestComputeRectsIncludesFullFrame(t *testing.T) {
	rects := computeRects(1920, 1080, DefaultROIs)
	if rects[0].Name != "full" {
		t.Fatalf("rects[0].Name = %s, want full", rects[0].Name)
	}
	if rects[0].Rect != (Rect{X: 0, Y: 0, W: 1920, H: 1080}) {
		t.Fatalf("rects[0].Rect = %+v, want full frame", rects[0].Rect)
	}
}

func TestComputeRectsBandsAreClampedAndOrdered(t *testing.T) {
	rects := computeRects(1920, 1080, DefaultROIs)
	if len(rects) != 1+len(DefaultROIs) {
		t.Fatalf("len(rects) = %d, want %d", len(rects), 1+len(DefaultROIs))
	}

	for _, r := range rects[1:] {
		if r.Rect.Y < 0 || r.Rect.Y+r.Rect.H > 1080 {
			t.Fatalf("rect %s out of bounds: %+v", r.Name, r.Rect)
		}
		if r.Rect.W != 1920 {
			t.Fatalf("rect %s width = %d, want full width 1920", r.Name, r.Rect.W)
		}
	}
}

func TestComputeRectsSkipsInvertedBands(t *testing.T) {
	rois := []ROI{{Name: "bad", TopPct: 0.9, BotPct: 0.1}}
	rects := computeRects(1920, 1080, rois)
	if len(rects) != 1 {
		t.Fatalf("len(rects) = %d, want 1 (full frame only)", len(rects))
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 0.5: 0.5, 1: 1, 2: 1}
	for in, want := range cases {
		if got := clamp01(in); got != want {
			t.Fatalf("clamp01(%f) = %f, want %f", in, got, want)
		}
	}
}

func TestSampleTimestampsSpacing(t *testing.T) {
	ts := sampleTimestamps(2.0, 2.0)
	want := []float64{0.0, 0.5, 1.0, 1.5}
	if len(ts) != len(want) {
		t.Fatalf("len(ts) = %d, want %d: %v", len(ts), len(want), ts)
	}
	for i, v := range want {
		if ts[i] != v {
			t.Fatalf("ts[%d] = %f, want %f", i, ts[i], v)
		}
	}
}

func TestSampleTimestampsZeroFPS(t *testing.T) {
	if ts := sampleTimestamps(10, 0); ts != nil {
		t.Fatalf("sampleTimestamps with fps=0 = %v, want nil", ts)
	}
}
