package webhook

import (
	"testing"
)

func TestParseDataTypeFormat(t *testing.T) {
	body := `{
		"dataType": "message",
		"sessionId": "onn",
		"data": {
			"message": {
				"_data": {
					"id": {"_serialized": "false_5551@c.us_ABC"},
					"from": "5551@c.us",
					"body": "Branco Liso 18mm",
					"type": "chat"
				}
			}
		}
	}`
	ev, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.SessionID != "onn" || ev.Type != "message" {
		t.Fatalf("envelope: %+v", ev)
	}
	if ev.Message == nil {
		t.Fatalf("mensagem não extraída")
	}
	if ev.Message.ID != "false_5551@c.us_ABC" || ev.Message.From != "5551@c.us" {
		t.Fatalf("campos aninhados em _data: %+v", ev.Message)
	}
	if ev.Message.Body != "Branco Liso 18mm" || ev.Message.Type != "chat" {
		t.Fatalf("corpo: %+v", ev.Message)
	}
}

func TestParseFlatEventFormat(t *testing.T) {
	body := `{
		"sessionId": "onn",
		"event": "message",
		"data": {
			"id": "msg-1",
			"from": "5551@c.us",
			"body": "oi",
			"type": "chat",
			"fromMe": false
		}
	}`
	ev, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Message == nil || ev.Message.ID != "msg-1" || ev.Message.Body != "oi" {
		t.Fatalf("formato plano: %+v", ev.Message)
	}
}

func TestParseSessionFallbacks(t *testing.T) {
	ev, err := Parse([]byte(`{"session": "red", "event": "ready"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.SessionID != "red" || ev.Type != "ready" {
		t.Fatalf("fallback de sessão: %+v", ev)
	}

	ev, err = Parse([]byte(`{"foo": 1}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.SessionID != "unknown" || ev.Type != "unknown" {
		t.Fatalf("defaults: %+v", ev)
	}
}

func TestParseMediaEvent(t *testing.T) {
	body := `{
		"dataType": "media",
		"sessionId": "onn",
		"data": {
			"message": {
				"id": {"_serialized": "audio-1"},
				"from": "5551@c.us",
				"type": "ptt",
				"duration": 4
			},
			"messageMedia": {
				"data": "UEsDQ==",
				"mimetype": "audio/ogg; codecs=opus",
				"filesize": 20480
			}
		}
	}`
	ev, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Media == nil || ev.Media.Mimetype != "audio/ogg; codecs=opus" {
		t.Fatalf("mídia: %+v", ev.Media)
	}
	if ev.Message == nil || ev.Message.Type != "ptt" || ev.Message.Duration != 4 {
		t.Fatalf("mensagem da mídia: %+v", ev.Message)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("nada")); err == nil {
		t.Fatalf("JSON inválido devia falhar")
	}
}
