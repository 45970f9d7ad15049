package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scrollcast/internal/startup"
)

func testConfig(t *testing.T) *startup.Config {
	t.Helper()
	return &startup.Config{
		Port:             "8080",
		WorkDir:          t.TempDir(),
		DefaultFramePath: filepath.Join(t.TempDir(), "no-such-frame.png"),
		MaxDimension:     4096,
		JobTimeout:       time.Minute,
		BatchSize:        2,
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pageImage returns an opaque screenshot-like image.
func pageImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

// frameImage returns a frame with a rectangular transparent cutout.
func frameImage(w, h int, cut image.Rectangle) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if image.Pt(x, y).In(cut) {
				img.Set(x, y, color.NRGBA{})
			} else {
				img.Set(x, y, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
			}
		}
	}
	return img
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/render", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func errorMessage(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	return resp["error"]
}

func TestRenderRejectsNonMultipart(t *testing.T) {
	h := New(testConfig(t))

	r := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("not a form"))
	rec := httptest.NewRecorder()
	h.Render(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRenderRequiresPage(t *testing.T) {
	h := New(testConfig(t))

	r := multipartRequest(t, map[string]string{"duration": "2"}, nil)
	rec := httptest.NewRecorder()
	h.Render(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec.Body); !strings.Contains(msg, "page") {
		t.Errorf("error = %q, want mention of page", msg)
	}
}

func TestRenderRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"duration not a number", map[string]string{"duration": "soon"}},
		{"duration NaN", map[string]string{"duration": "NaN"}},
		{"fps not a number", map[string]string{"fps": "fast"}},
		{"fps fractional", map[string]string{"fps": "29.97"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(testConfig(t))

			r := multipartRequest(t, tt.fields, nil)
			rec := httptest.NewRecorder()
			h.Render(rec, r)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRenderNoFrameAndNoDefault(t *testing.T) {
	h := New(testConfig(t)) // DefaultFramePath points at nothing

	page := encodePNG(t, pageImage(100, 300))
	r := multipartRequest(t, nil, []formFile{{"page", "page.png", page}})
	rec := httptest.NewRecorder()
	h.Render(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec.Body); !strings.Contains(msg, "default frame") {
		t.Errorf("error = %q, want mention of default frame", msg)
	}
}

func TestRenderRejectsOversizePage(t *testing.T) {
	h := New(testConfig(t))

	page := encodePNG(t, pageImage(100, 5000))
	frame := encodePNG(t, frameImage(120, 200, image.Rect(10, 10, 110, 190)))
	r := multipartRequest(t, nil, []formFile{
		{"page", "page.png", page},
		{"frame", "frame.png", frame},
	})
	rec := httptest.NewRecorder()
	h.Render(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec.Body); !strings.Contains(msg, "4096") {
		t.Errorf("error = %q, want dimension limit", msg)
	}
}

func TestRenderRejectsFrameWithoutAlpha(t *testing.T) {
	h := New(testConfig(t))

	var frameBuf bytes.Buffer
	if err := jpeg.Encode(&frameBuf, pageImage(120, 200), nil); err != nil {
		t.Fatal(err)
	}

	page := encodePNG(t, pageImage(100, 300))
	r := multipartRequest(t, nil, []formFile{
		{"page", "page.png", page},
		{"frame", "frame.jpg", frameBuf.Bytes()},
	})
	rec := httptest.NewRecorder()
	h.Render(rec, r)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestRenderRejectsFrameWithoutCutout(t *testing.T) {
	h := New(testConfig(t))

	// NRGBA frame with every pixel opaque: alpha channel present, no cutout.
	opaque := image.NewNRGBA(image.Rect(0, 0, 120, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 120; x++ {
			opaque.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	page := encodePNG(t, pageImage(100, 300))
	r := multipartRequest(t, nil, []formFile{
		{"page", "page.png", page},
		{"frame", "frame.png", encodePNG(t, opaque)},
	})
	rec := httptest.NewRecorder()
	h.Render(rec, r)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestParseDurationParam(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"empty uses default", "", defaultDuration, false},
		{"valid", "12.5", 12.5, false},
		{"below floor clamped", "0.2", minDuration, false},
		{"garbage", "never", 0, true},
		{"infinity", "+Inf", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDurationParam(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDurationParam(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseDurationParam(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFPSParam(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty uses default", "", defaultFPS, false},
		{"valid", "24", 24, false},
		{"below floor clamped", "5", minFPS, false},
		{"garbage", "smooth", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFPSParam(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFPSParam(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFPSParam(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"page.png", ".png"},
		{"photo.JPG", ".jpg"},
		{"photo.jpeg", ".jpeg"},
		{"anim.gif", ".gif"},
		{"modern.webp", ".webp"},
		{"script.sh", ".png"},
		{"noext", ".png"},
		{"../../../etc/passwd", ".png"},
	}

	for _, tt := range tests {
		if got := safeExt(tt.filename); got != tt.want {
			t.Errorf("safeExt(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
