package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/swz-git/zero-g-script/internal"
	"github.com/vmihailenco/msgpack/v5"
)

// Message types carried in the T field of an envelope.
const (
	MsgHello    = "hello"
	MsgSnapshot = "snapshot"
	MsgState    = "state"
	MsgBye      = "bye"
)

// ProtocolVersion is sent to the match host in the hello message.
const ProtocolVersion = 1

// Hello is the first message sent after connecting.
type Hello struct {
	AgentID string `json:"agent_id"`
	Version int    `json:"version"`
}

// Codec encodes envelopes for a websocket connection. Every frame holds exactly one envelope: a
// message type and its payload.
type Codec interface {
	// Name returns the name the codec is selected by in the settings.
	Name() string
	// FrameType returns the websocket message type frames of this codec are sent as.
	FrameType() int
	// Encode encodes an envelope of type t holding payload.
	Encode(t string, payload any) ([]byte, error)
	// Decode decodes an envelope and returns its type and its still encoded payload.
	Decode(b []byte) (t string, payload []byte, err error)
	// Unmarshal decodes a payload returned by Decode into v.
	Unmarshal(payload []byte, v any) error
}

// CodecByName returns the codec with the name passed.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "json", "":
		return JSON{}, nil
	case "msgpack":
		return MessagePack{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

type envelope struct {
	T string `json:"t"`
	P any    `json:"p"`
}

// JSON encodes envelopes as JSON text frames.
type JSON struct{}

func (JSON) Name() string   { return "json" }
func (JSON) FrameType() int { return websocket.TextMessage }

func (JSON) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("envelope without message type")
	}
	return json.Marshal(envelope{T: t, P: payload})
}

func (JSON) Decode(b []byte) (string, []byte, error) {
	if len(b) == 0 {
		return "", nil, fmt.Errorf("empty envelope")
	}
	var e struct {
		T string          `json:"t"`
		P json.RawMessage `json:"p"`
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return "", nil, err
	}
	return e.T, e.P, nil
}

func (JSON) Unmarshal(payload []byte, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(payload, v)
}

// MessagePack encodes envelopes as MessagePack binary frames. Struct fields are keyed by their json
// tags so that both codecs produce the same field names.
type MessagePack struct{}

func (MessagePack) Name() string   { return "msgpack" }
func (MessagePack) FrameType() int { return websocket.BinaryMessage }

func (MessagePack) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("envelope without message type")
	}
	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)

	if err := MarshalMsgpack(buf, envelope{T: t, P: payload}); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

func (MessagePack) Decode(b []byte) (string, []byte, error) {
	if len(b) == 0 {
		return "", nil, fmt.Errorf("empty envelope")
	}
	var e struct {
		T string             `json:"t"`
		P msgpack.RawMessage `json:"p"`
	}
	if err := UnmarshalMsgpack(b, &e); err != nil {
		return "", nil, err
	}
	return e.T, e.P, nil
}

func (MessagePack) Unmarshal(payload []byte, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	return UnmarshalMsgpack(payload, v)
}

// MarshalMsgpack writes v to buf as MessagePack, keying struct fields by their json tags.
func MarshalMsgpack(buf *bytes.Buffer, v any) error {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	enc.Reset(buf)
	enc.SetCustomStructTag("json")
	return enc.Encode(v)
}

// UnmarshalMsgpack decodes MessagePack written by MarshalMsgpack into v.
func UnmarshalMsgpack(b []byte, v any) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
