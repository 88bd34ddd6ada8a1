package streaming

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Message type constants matching the streaming protocol.
const (
	TypeSubscribe = "subscribe"
	TypeMessage   = "message"
	TypeAck       = "ack"
)

// Default channel names.
const (
	TopicPlanning     = "/apollo/planning"
	TopicLocalization = "/apollo/localization/pose"
)

// Payload encodings. Text frames carry JSON, binary frames carry msgpack.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// ErrUnknownEncoding is returned for an encoding other than json or msgpack.
var ErrUnknownEncoding = errors.New("unknown payload encoding")

// Envelope is a decoded frame. Payload holds the still-encoded record in
// the frame's Encoding.
type Envelope struct {
	Type      string
	Topic     string
	Timestamp float64 // sender clock, seconds
	Encoding  string
	Payload   []byte
}

// SubscribePayload lists the topics a client wants delivered.
type SubscribePayload struct {
	ClientID string   `json:"clientId" msgpack:"clientId"`
	Topics   []string `json:"topics" msgpack:"topics"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

type jsonFrame struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Timestamp float64         `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type msgpackFrame struct {
	Type      string             `msgpack:"type"`
	Topic     string             `msgpack:"topic,omitempty"`
	Timestamp float64            `msgpack:"timestamp,omitempty"`
	Payload   msgpack.RawMessage `msgpack:"payload,omitempty"`
}

// UnmarshalFrame decodes a frame in the given encoding.
func UnmarshalFrame(data []byte, encoding string) (Envelope, error) {
	switch encoding {
	case EncodingJSON:
		var f jsonFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal json frame: %w", err)
		}
		return Envelope{Type: f.Type, Topic: f.Topic, Timestamp: f.Timestamp, Encoding: encoding, Payload: f.Payload}, nil
	case EncodingMsgpack:
		var f msgpackFrame
		if err := msgpack.Unmarshal(data, &f); err != nil {
			return Envelope{}, fmt.Errorf("unmarshal msgpack frame: %w", err)
		}
		return Envelope{Type: f.Type, Topic: f.Topic, Timestamp: f.Timestamp, Encoding: encoding, Payload: f.Payload}, nil
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// MarshalFrame builds a frame of the given type carrying payload encoded
// with encoding. A nil payload produces a frame without one.
func MarshalFrame(msgType, topic string, timestamp float64, payload any, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingJSON:
		f := jsonFrame{Type: msgType, Topic: topic, Timestamp: timestamp}
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
			}
			f.Payload = raw
		}
		data, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("marshal %s frame: %w", msgType, err)
		}
		return data, nil
	case EncodingMsgpack:
		f := msgpackFrame{Type: msgType, Topic: topic, Timestamp: timestamp}
		if payload != nil {
			raw, err := msgpack.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
			}
			f.Payload = raw
		}
		data, err := msgpack.Marshal(&f)
		if err != nil {
			return nil, fmt.Errorf("marshal %s frame: %w", msgType, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// DecodePayload decodes an envelope payload into v.
func DecodePayload(env Envelope, v any) error {
	switch env.Encoding {
	case EncodingJSON, "":
		return json.Unmarshal(env.Payload, v)
	case EncodingMsgpack:
		return msgpack.Unmarshal(env.Payload, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, env.Encoding)
	}
}
