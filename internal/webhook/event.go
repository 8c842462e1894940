// Package webhook recebe os eventos do gateway WhatsApp, filtra o que
// interessa e aciona o motor de conversa.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event é o evento já normalizado. O gateway envia o mesmo conteúdo em
// formatos ligeiramente diferentes; Parse aceita todos.
type Event struct {
	SessionID string
	Type      string
	Message   *Message
	Media     *Media
}

type Message struct {
	ID       string
	From     string
	To       string
	Body     string
	Type     string // chat, ptt, image...
	FromMe   bool
	HasMedia bool
	Duration float64
}

type Media struct {
	Data     string // base64
	Mimetype string
	Filesize int64
}

// messageID aceita tanto a string direta quanto {"_serialized": "..."}.
type messageID string

func (m *messageID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = messageID(s)
		return nil
	}
	var obj struct {
		Serialized string `json:"_serialized"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*m = messageID(obj.Serialized)
	return nil
}

type rawMessage struct {
	ID       messageID   `json:"id"`
	From     string      `json:"from"`
	To       string      `json:"to"`
	Body     string      `json:"body"`
	Type     string      `json:"type"`
	FromMe   bool        `json:"fromMe"`
	HasMedia bool        `json:"hasMedia"`
	Duration float64     `json:"duration"`
	Inner    *rawMessage `json:"_data"`
}

// flatten prefere os campos do nível de cima e completa com _data.
func (r *rawMessage) flatten() Message {
	out := Message{
		ID:       string(r.ID),
		From:     r.From,
		To:       r.To,
		Body:     r.Body,
		Type:     r.Type,
		FromMe:   r.FromMe,
		HasMedia: r.HasMedia,
		Duration: r.Duration,
	}
	if r.Inner != nil {
		in := r.Inner.flatten()
		if out.ID == "" {
			out.ID = in.ID
		}
		if out.From == "" {
			out.From = in.From
		}
		if out.To == "" {
			out.To = in.To
		}
		if out.Body == "" {
			out.Body = in.Body
		}
		if out.Type == "" {
			out.Type = in.Type
		}
		out.FromMe = out.FromMe || in.FromMe
		out.HasMedia = out.HasMedia || in.HasMedia
		if out.Duration == 0 {
			out.Duration = in.Duration
		}
	}
	return out
}

type envelope struct {
	SessionID string          `json:"sessionId"`
	Session   string          `json:"session"`
	DataType  string          `json:"dataType"`
	Event     string          `json:"event"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
}

type eventData struct {
	rawMessage
	Message      *rawMessage `json:"message"`
	MessageMedia *struct {
		Data     string `json:"data"`
		Mimetype string `json:"mimetype"`
		Filesize int64  `json:"filesize"`
	} `json:"messageMedia"`
}

// Parse normaliza o corpo do webhook. Erros só para JSON inválido;
// campos faltando viram "unknown", como o gateway permite.
func Parse(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("webhook inválido: %w", err)
	}

	ev := &Event{SessionID: env.SessionID}
	if ev.SessionID == "" {
		ev.SessionID = env.Session
	}
	if ev.SessionID == "" {
		ev.SessionID = "unknown"
	}

	switch {
	case env.DataType != "":
		ev.Type = env.DataType
	case env.Event != "":
		ev.Type = env.Event
	case env.Type != "":
		ev.Type = env.Type
	default:
		ev.Type = "unknown"
	}

	raw := env.Data
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = body
	}

	var data eventData
	if err := json.Unmarshal(raw, &data); err != nil {
		// Payload de dados fora do formato conhecido não é fatal.
		return ev, nil
	}

	var msg Message
	if data.Message != nil {
		msg = data.Message.flatten()
	} else {
		msg = data.rawMessage.flatten()
	}
	if msg.From != "" || msg.Body != "" || msg.ID != "" {
		ev.Message = &msg
	}

	if data.MessageMedia != nil {
		ev.Media = &Media{
			Data:     data.MessageMedia.Data,
			Mimetype: data.MessageMedia.Mimetype,
			Filesize: data.MessageMedia.Filesize,
		}
	}
	return ev, nil
}
