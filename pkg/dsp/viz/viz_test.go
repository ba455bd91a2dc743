package viz

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeDomainPlotterKeepsTail(t *testing.T) {
	p := NewTimeDomainPlotter("raw", 4)
	if img := p.GetImage(); img != nil {
		t.Error("expected no image before buffer fills")
	}
	p.AppendFloat([]float32{1, 2, 3})
	p.AppendFloat([]float32{4, 5, 6})

	points := p.Points()
	if len(points) != 4 {
		t.Fatalf("len = %d, want 4", len(points))
	}
	for i, want := range []float64{3, 4, 5, 6} {
		if points[i].Y != want {
			t.Errorf("point %d = %f, want %f", i, points[i].Y, want)
		}
	}

	img := p.GetImage()
	if img == nil || len(img.data) == 0 {
		t.Fatal("expected png")
	}
	if !strings.HasPrefix(string(img.data), "\x89PNG") {
		t.Error("image is not a png")
	}
}

func TestFFTPlotterPeak(t *testing.T) {
	const rate = 128
	p := NewFFTPlotterFloat("spectrum", 256, rate)
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 16 * float64(i) / rate))
	}
	p.AppendFloat(samples)

	points := p.Spectrum()
	peak := points[0]
	for _, pt := range points {
		if pt.Y > peak.Y {
			peak = pt
		}
	}
	if math.Abs(peak.X-16) > 0.6 {
		t.Errorf("peak at %.2f Hz, want 16 Hz", peak.X)
	}
}

func TestFFTPlotterAppendShifts(t *testing.T) {
	p := NewFFTPlotterFloat("s", 4, 4)
	p.AppendFloat([]float32{1, 2})
	p.AppendFloat([]float32{3})
	want := []float32{0, 1, 2, 3}
	for i := range want {
		if p.bufFloat[i] != want[i] {
			t.Fatalf("buf = %v, want %v", p.bufFloat, want)
		}
	}
	p.AppendFloat([]float32{5, 6, 7, 8, 9})
	if p.bufFloat[0] != 6 || p.bufFloat[3] != 9 {
		t.Errorf("buf = %v", p.bufFloat)
	}
}

func TestServerRoutes(t *testing.T) {
	s := NewServer(0, 10*time.Millisecond)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET / with no buckets = %d", rec.Code)
	}

	tp := NewTimeDomainPlotter("01. Raw", 2)
	tp.AppendFloat([]float32{1, 2})
	s.Register("A", tp)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/view/A" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/A", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "graph-0") {
		t.Errorf("GET /view/A = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /view/missing = %d", rec.Code)
	}

	s.render()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img/A/01.%20Raw", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("GET image = %d", rec.Code)
	}
}
