package ingress

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/printrelay/printrelay/internal/message"
)

const (
	MaxTitleLength = 40
	MaxBodyLength  = 180

	// Submitted images must be exactly this many pixels on each side.
	ImageSide = 256
)

type ErrorKind string

const (
	KindTitleTooLong           ErrorKind = "title_too_long"
	KindBodyTooLong            ErrorKind = "body_too_long"
	KindImageFormatInvalid     ErrorKind = "image_format_invalid"
	KindImageDimensionMismatch ErrorKind = "image_dimension_mismatch"
)

// ValidationError tags a rejected submission with the rule it broke, so every
// rejection path is enumerable by the caller.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Submission is the raw external input before validation. Image holds the
// decoded bytes of the uploaded payload (the transport layer handles base64).
type Submission struct {
	Title      string
	Image      []byte
	Body       string
	RemoteAddr string
}

// Validate turns a raw submission into a message record or rejects it with a
// *ValidationError. This is synchronous, local validation: nothing past here
// ever sees an over-length or malformed record.
func Validate(sub Submission) (*message.Message, error) {
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		title = message.PlaceholderTitle
	}

	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return nil, &ValidationError{
			Kind:   KindTitleTooLong,
			Detail: fmt.Sprintf("title is %d characters, maximum is %d", n, MaxTitleLength),
		}
	}

	if n := utf8.RuneCountInString(sub.Body); n > MaxBodyLength {
		return nil, &ValidationError{
			Kind:   KindBodyTooLong,
			Detail: fmt.Sprintf("body is %d characters, maximum is %d", n, MaxBodyLength),
		}
	}

	var img []byte
	if len(sub.Image) > 0 {
		if err := checkImage(sub.Image); err != nil {
			return nil, err
		}
		img = sub.Image
	}

	return &message.Message{
		ID:         uuid.NewString(),
		Title:      title,
		Image:      img,
		Body:       sub.Body,
		SourceAddr: sub.RemoteAddr,
	}, nil
}

func checkImage(data []byte) error {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{
			Kind:   KindImageFormatInvalid,
			Detail: fmt.Sprintf("image does not decode as PNG: %v", err),
		}
	}

	if cfg.Width != ImageSide || cfg.Height != ImageSide {
		return &ValidationError{
			Kind: KindImageDimensionMismatch,
			Detail: fmt.Sprintf("image is %dx%d pixels, expected %dx%d",
				cfg.Width, cfg.Height, ImageSide, ImageSide),
		}
	}

	return nil
}
