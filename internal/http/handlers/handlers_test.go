package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"headshot/internal/catalog"
	"headshot/internal/domain"
	"headshot/internal/generation"
	"headshot/internal/infra"
	"headshot/internal/middleware"
	"headshot/internal/providers/image"
	"headshot/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func newTestApp(t *testing.T, gen image.Generator) *App {
	t.Helper()
	uploads, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("uploads store: %v", err)
	}
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("results store: %v", err)
	}
	logger := zerolog.Nop()
	results := storage.NewResultStore(files, "/static", time.Hour, logger)
	cat := catalog.Default()
	orch := generation.New(cat, gen, results, generation.Options{})
	cfg := &infra.Config{MaxProfileImages: 3, MaxUploadBytes: 1 << 20}
	app := NewApp(cfg, logger, cat, orch, uploads, results)
	app.KeepAlive = 0
	app.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return app
}

func okGenerator() image.Generator {
	return image.GeneratorFunc(func(_ context.Context, req image.GenerateRequest) (*image.Asset, error) {
		if req.StyleID == "tech" {
			return nil, errors.New("no image data in response")
		}
		return &image.Asset{Format: "image/png", Data: pngBytes}, nil
	})
}

type formFile struct {
	field string
	name  string
	data  []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := fw.Write(f.data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func readEvents(t *testing.T, body string) []domain.Event {
	t.Helper()
	var events []domain.Event
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e domain.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

func TestGenerateStream(t *testing.T) {
	app := newTestApp(t, okGenerator())
	req := multipartRequest(t, "/v1/generate/stream",
		map[string]string{"styles": `["tech","studio"]`},
		[]formFile{{field: "profiles", name: "me.png", data: pngBytes}},
	)
	rec := httptest.NewRecorder()
	app.GenerateStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	events := readEvents(t, rec.Body.String())
	var kinds []string
	for _, e := range events {
		kinds = append(kinds, string(e.Type)+":"+e.StyleID)
	}
	want := "progress:tech error:tech progress:studio result:studio complete:studio done:"
	if got := strings.Join(kinds, " "); got != want {
		t.Fatalf("events = %s\nwant     %s", got, want)
	}
	if events[3].StyleName != "Studio" || !strings.HasPrefix(events[3].ImageURL, "/static/") {
		t.Fatalf("unexpected result event: %+v", events[3])
	}
	if !strings.Contains(rec.Body.String(), `"error":"provider failure`) {
		t.Fatalf("error event missing message: %s", rec.Body.String())
	}
}

func TestGenerateStreamRejectsMissingImages(t *testing.T) {
	called := false
	app := newTestApp(t, image.GeneratorFunc(func(context.Context, image.GenerateRequest) (*image.Asset, error) {
		called = true
		return nil, nil
	}))
	req := multipartRequest(t, "/v1/generate/stream", map[string]string{"styles": `["professional"]`}, nil)
	rec := httptest.NewRecorder()
	app.GenerateStream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "data:") {
		t.Fatalf("no events expected: %s", rec.Body.String())
	}
	if called {
		t.Fatal("generator must not be called")
	}
}

func TestGenerateValidation(t *testing.T) {
	profile := []formFile{{field: "profiles", name: "me.png", data: pngBytes}}
	tests := []struct {
		name   string
		fields map[string]string
		files  []formFile
		want   string
	}{
		{"no styles", map[string]string{}, profile, "styles"},
		{"unknown style", map[string]string{"styles": `["pirate"]`}, profile, "unknown style"},
		{"bad styles json", map[string]string{"styles": `["professional"`}, profile, "JSON array"},
		{"bad face mode", map[string]string{"styles": "professional", "faceMode": "collage"}, profile, "face mode"},
		{"bad primary", map[string]string{"styles": "professional", "primaryImageIndex": "3"}, profile, "primary image index"},
		{"bad year", map[string]string{"styles": "professional", "year": "last"}, profile, "year"},
		{"bad aspect", map[string]string{"styles": "professional", "aspectRatio": "7:5"}, profile, "aspect ratio"},
		{"not an image", map[string]string{"styles": "professional"}, []formFile{{field: "profiles", name: "a.txt", data: []byte("hello")}}, "unsupported media"},
		{"too many images", map[string]string{"styles": "professional"}, []formFile{profile[0], profile[0], profile[0], profile[0]}, "too many"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, okGenerator())
			rec := httptest.NewRecorder()
			app.GenerateBatch(rec, multipartRequest(t, "/v1/generate", tc.fields, tc.files))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 body=%s", rec.Code, rec.Body.String())
			}
			var body struct {
				Error errorBody `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != "bad_request" || !strings.Contains(body.Error.Message, tc.want) {
				t.Fatalf("error = %+v, want message containing %q", body.Error, tc.want)
			}
		})
	}
}

func TestGenerateBatch(t *testing.T) {
	var prompts []string
	app := newTestApp(t, image.GeneratorFunc(func(_ context.Context, req image.GenerateRequest) (*image.Asset, error) {
		prompts = append(prompts, req.Prompt)
		if len(req.Images) != 3 {
			t.Errorf("images attached = %d, want 3", len(req.Images))
		}
		return &image.Asset{Format: "image/png", Data: pngBytes}, nil
	}))
	files := []formFile{
		{field: "profiles", name: "a.png", data: pngBytes},
		{field: "profiles", name: "b.png", data: pngBytes},
		{field: "profiles", name: "c.png", data: pngBytes},
	}
	req := multipartRequest(t, "/v1/generate", map[string]string{"styles": `["vintage","tech"]`, "mixFaces": "true"}, files)
	rec := httptest.NewRecorder()
	app.GenerateBatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 || len(resp.Errors) != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].StyleID != "vintage" || resp.Results[1].StyleID != "tech" {
		t.Fatalf("results out of order: %+v", resp.Results)
	}
	for _, p := range prompts {
		if !strings.Contains(p, "all 3 provided images") || !strings.Contains(p, "2024") {
			t.Fatalf("unexpected prompt: %s", p)
		}
	}
}

func TestStylesAndHealth(t *testing.T) {
	app := newTestApp(t, okGenerator())

	rec := httptest.NewRecorder()
	app.Styles(rec, httptest.NewRequest(http.MethodGet, "/v1/styles", nil))
	var styles []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &styles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(styles) != 16 || styles[0]["id"] != "professional" || styles[0]["title"] != "Professional" {
		t.Fatalf("unexpected styles: %v", styles)
	}
	if _, leaked := styles[0]["prompt"]; leaked {
		t.Fatal("prompt text must not be exposed")
	}

	rec = httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestArchive(t *testing.T) {
	app := newTestApp(t, okGenerator())
	res, err := app.Results.Put(context.Background(), "req", "studio", pngBytes, "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	rec := httptest.NewRecorder()
	app.Archive(rec, httptest.NewRequest(http.MethodGet, "/v1/results/archive?key="+res.Key+"&key=req/missing.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}

	rec = httptest.NewRecorder()
	app.Archive(rec, httptest.NewRequest(http.MethodGet, "/v1/results/archive?key=req/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.Archive(rec, httptest.NewRequest(http.MethodGet, "/v1/results/archive", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseStyles(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{`["a","b"]`}, "a,b"},
		{[]string{"a,b"}, "a,b"},
		{[]string{"a", "b"}, "a,b"},
		{[]string{"", " "}, ""},
	}
	for _, tt := range tests {
		got, err := parseStyles(tt.in)
		if err != nil {
			t.Fatalf("parseStyles(%v): %v", tt.in, err)
		}
		if strings.Join(got, ",") != tt.want {
			t.Fatalf("parseStyles(%v) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestUploadsRemovedOnEveryExitPath(t *testing.T) {
	profile := []formFile{{field: "profiles", name: "me.png", data: pngBytes}}
	tests := []struct {
		name   string
		styles string
		gen    func(cancel context.CancelFunc) image.Generator
		batch  bool
	}{
		{
			name:   "stream completes",
			styles: `["professional","studio"]`,
			gen:    func(context.CancelFunc) image.Generator { return okGenerator() },
		},
		{
			name:   "batch completes",
			styles: `["professional"]`,
			gen:    func(context.CancelFunc) image.Generator { return okGenerator() },
			batch:  true,
		},
		{
			name:   "unknown style after spooling",
			styles: `["professional","nope"]`,
			gen:    func(context.CancelFunc) image.Generator { return okGenerator() },
		},
		{
			name:   "client goes away mid stream",
			styles: `["professional","studio"]`,
			gen: func(cancel context.CancelFunc) image.Generator {
				return image.GeneratorFunc(func(ctx context.Context, _ image.GenerateRequest) (*image.Asset, error) {
					cancel()
					return nil, ctx.Err()
				})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			app := newTestApp(t, tt.gen(cancel))
			target := "/v1/generate/stream"
			handler := app.GenerateStream
			if tt.batch {
				target, handler = "/v1/generate", app.GenerateBatch
			}
			req := multipartRequest(t, target, map[string]string{"styles": tt.styles}, profile).WithContext(ctx)
			rec := httptest.NewRecorder()
			handler(rec, req)

			entries, err := os.ReadDir(app.Uploads.BasePath())
			if err != nil {
				t.Fatalf("read uploads dir: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("uploads left behind after %q (status %d): %d entries", tt.name, rec.Code, len(entries))
			}
		})
	}
}

func TestGenerateStreamUsesMiddlewareRequestID(t *testing.T) {
	var seen []string
	gen := image.GeneratorFunc(func(_ context.Context, req image.GenerateRequest) (*image.Asset, error) {
		seen = append(seen, req.RequestID)
		return &image.Asset{Format: "image/png", Data: pngBytes}, nil
	})
	app := newTestApp(t, gen)
	req := multipartRequest(t, "/v1/generate/stream",
		map[string]string{"styles": `["professional"]`},
		[]formFile{{field: "profiles", name: "me.png", data: pngBytes}},
	)
	req.Header.Set("X-Request-ID", "rid-42")
	rec := httptest.NewRecorder()
	middleware.RequestID(http.HandlerFunc(app.GenerateStream)).ServeHTTP(rec, req)

	if len(seen) != 1 || seen[0] != "rid-42" {
		t.Fatalf("generator request ids = %v, want [rid-42]", seen)
	}
	events := readEvents(t, rec.Body.String())
	if len(events) < 2 || !strings.Contains(events[1].ImageURL, "/rid-42/") {
		t.Fatalf("result url does not carry request id: %+v", events)
	}
}
