package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/printrelay/printrelay/internal/message"
)

type stubPublisher struct {
	published []*message.Message
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, m *message.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, m)
	return nil
}

type stubCounter struct {
	count int64
}

func (c *stubCounter) Count() int64 { return c.count }

func newTestRouter(pub Publisher, counter Counter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(pub, counter, zerolog.Nop())
	return NewRouter(h, "", zerolog.Nop())
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitAccepted(t *testing.T) {
	pub := &stubPublisher{}
	router := newTestRouter(pub, nil)

	w := postJSON(t, router, "/api/messages", map[string]string{
		"title": "Hello",
		"msg":   "world",
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.ID == "" || resp.Status != "accepted" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.published))
	}
	m := pub.published[0]
	if m.Title != "Hello" || m.Body != "world" {
		t.Errorf("published wrong message: %+v", m)
	}
	if m.SourceAddr == "" {
		t.Error("expected source address captured at ingress")
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	pub := &stubPublisher{}
	router := newTestRouter(pub, nil)

	w := postJSON(t, router, "/api/messages", map[string]string{
		"title": strings.Repeat("a", 41),
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "title_too_long") {
		t.Errorf("expected tagged error kind, got: %s", w.Body.String())
	}
	if len(pub.published) != 0 {
		t.Error("rejected submission must never enter the pipeline")
	}
}

func TestSubmitWithValidImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	pub := &stubPublisher{}
	router := newTestRouter(pub, nil)

	w := postJSON(t, router, "/api/messages", map[string]any{
		"title": "pic",
		"img":   buf.Bytes(), // marshals to base64, as the page sends it
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(pub.published) != 1 || !bytes.Equal(pub.published[0].Image, buf.Bytes()) {
		t.Error("image bytes must arrive at the publisher unchanged")
	}
}

func TestSubmitWrongSizeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	router := newTestRouter(&stubPublisher{}, nil)
	w := postJSON(t, router, "/api/messages", map[string]any{"img": buf.Bytes()})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "image_dimension_mismatch") {
		t.Errorf("expected dimension mismatch kind, got: %s", w.Body.String())
	}
}

func TestSubmitMalformedJSON(t *testing.T) {
	router := newTestRouter(&stubPublisher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmitRelayUnavailable(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	router := newTestRouter(pub, nil)

	w := postJSON(t, router, "/api/messages", map[string]string{"title": "t"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetCount(t *testing.T) {
	router := newTestRouter(&stubPublisher{}, &stubCounter{count: 7})

	req := httptest.NewRequest(http.MethodGet, "/api/count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp CountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Count != 7 {
		t.Errorf("expected count 7, got %d", resp.Count)
	}
}

func TestGetCountWithoutStore(t *testing.T) {
	router := newTestRouter(&stubPublisher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("count must always succeed, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"count":0`) {
		t.Errorf("expected count 0, got: %s", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubPublisher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
