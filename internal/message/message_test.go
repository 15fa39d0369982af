package message

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := &Message{
		ID:         "abc-123",
		Title:      "Hello world!",
		Image:      []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff},
		Body:       "here a short note I want to share!",
		SourceAddr: "192.0.2.7",
	}

	data, err := original.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("id mismatch: got %q", decoded.ID)
	}
	if decoded.Title != original.Title {
		t.Errorf("title mismatch: got %q", decoded.Title)
	}
	if !bytes.Equal(decoded.Image, original.Image) {
		t.Errorf("image bytes did not round-trip: got %v", decoded.Image)
	}
	if decoded.Body != original.Body {
		t.Errorf("body mismatch: got %q", decoded.Body)
	}
	if decoded.SourceAddr != original.SourceAddr {
		t.Errorf("source addr mismatch: got %q", decoded.SourceAddr)
	}
}

func TestEncodeImageIsBase64(t *testing.T) {
	m := &Message{Title: "t", Image: []byte{0x00, 0x01, 0x02}}

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// []byte marshals as a base64 string, keeping the payload self-describing.
	if !strings.Contains(string(data), `"img":"AAEC"`) {
		t.Errorf("expected base64 image field, got: %s", data)
	}
}

func TestEncodeOmitsMissingImage(t *testing.T) {
	m := &Message{Title: "t", Body: "b"}

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if strings.Contains(string(data), "img") {
		t.Errorf("expected no img field, got: %s", data)
	}
	if m.HasImage() {
		t.Error("HasImage should be false without image bytes")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, payload := range [][]byte{
		nil,
		{},
		[]byte("not json at all"),
		[]byte(`"a bare string"`),
		[]byte(`[1, 2, 3]`),
	} {
		if _, err := Decode(payload); err == nil {
			t.Errorf("expected decode error for payload %q", payload)
		}
	}
}
