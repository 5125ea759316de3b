// Package codec 负责消息在 WebSocket 帧上的编解码。
// 文本帧使用 JSON，二进制帧使用 protobuf（google.protobuf.Struct 信封）。
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/judgment/internal/protocol"
)

// Encoding 消息编码方式
type Encoding int

const (
	JSON     Encoding = iota // 文本帧
	Protobuf                 // 二进制帧
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case Protobuf:
		return "protobuf"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

const (
	fieldType    = "type"
	fieldPayload = "payload"
)

// NewMessage 创建消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	return protocol.NewMessage(msgType, payload)
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	return protocol.MustNewMessage(msgType, payload)
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	return protocol.ParsePayload[T](msg)
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	return protocol.NewErrorMessage(code)
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return protocol.NewErrorMessageWithText(code, text)
}

// ErrorMessageFrom 把错误转成错误消息
func ErrorMessageFrom(err error) *protocol.Message {
	return protocol.ErrorMessageFrom(err)
}

// Encode 按指定方式编码消息
func Encode(msg *protocol.Message, enc Encoding) ([]byte, error) {
	switch enc {
	case JSON:
		return encodeJSON(msg)
	case Protobuf:
		return encodeProto(msg)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

// Decode 按指定方式解码消息
func Decode(data []byte, enc Encoding) (*protocol.Message, error) {
	switch enc {
	case JSON:
		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	case Protobuf:
		return decodeProto(data)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

func encodeJSON(msg *protocol.Message) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	// Encoder 会追加换行
	out := make([]byte, buf.Len()-1)
	copy(out, buf.Bytes())
	return out, nil
}

func encodeProto(msg *protocol.Message) ([]byte, error) {
	fields := map[string]any{fieldType: string(msg.Type)}
	if len(msg.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		fields[fieldPayload] = payload
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("convert payload: %w", err)
	}
	return proto.Marshal(s)
}

func decodeProto(data []byte) (*protocol.Message, error) {
	s := getStruct()
	defer putStruct(s)

	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}

	typ := s.GetFields()[fieldType].GetStringValue()
	if typ == "" {
		return nil, fmt.Errorf("missing message type")
	}

	msg := &protocol.Message{Type: protocol.MessageType(typ)}
	if v, ok := s.GetFields()[fieldPayload]; ok {
		raw, err := json.Marshal(v.AsInterface())
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}
