package message

import (
	"encoding/json"
	"fmt"
)

// PlaceholderTitle is substituted at ingress when a submission carries no title.
const PlaceholderTitle = "untitled"

// Message is the validated, immutable unit of work flowing from submission to
// the device worker. Image bytes travel base64-encoded on the wire (standard
// JSON encoding of []byte) so the payload stays self-describing.
type Message struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title"`
	Image      []byte `json:"img,omitempty"`
	Body       string `json:"msg"`
	SourceAddr string `json:"ip_address,omitempty"`
}

func (m *Message) HasImage() bool {
	return len(m.Image) > 0
}

// Encode serializes the message for the relay channel.
func (m *Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

// Decode parses a relay payload back into a message. Any payload that does not
// decode as a message object is rejected; the caller treats it as poison.
func Decode(payload []byte) (*Message, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	return &m, nil
}
