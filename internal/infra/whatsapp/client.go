// Package whatsapp fala com o gateway HTTP do WhatsApp: envio de
// texto, resposta, digitando, documentos e transcrição de áudio.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("montar requisição %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("criar requisição %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chamar gateway %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decodificar resposta %s: %w", path, err)
	}
	return nil
}

// SendText envia uma mensagem de texto simples.
func (c *Client) SendText(ctx context.Context, session, chatID, content string) error {
	return c.post(ctx, "/client/sendMessage/"+session, map[string]any{
		"chatId":      chatID,
		"contentType": "string",
		"content":     content,
	}, nil)
}

// Reply responde citando uma mensagem específica.
func (c *Client) Reply(ctx context.Context, session, chatID, messageID, content string) error {
	return c.post(ctx, "/message/reply/"+session, map[string]any{
		"chatId":    chatID,
		"messageId": messageID,
		"content":   content,
	}, nil)
}

// SendTyping sinaliza "digitando". A falha não é crítica para o fluxo.
func (c *Client) SendTyping(ctx context.Context, session, chatID string) error {
	return c.post(ctx, "/client/sendPresenceAvailable/"+session, map[string]any{
		"chatId": chatID,
	}, nil)
}

// SendDocument envia um arquivo como anexo com legenda.
func (c *Client) SendDocument(ctx context.Context, session, chatID, filename, mimetype string, data []byte, caption string) error {
	return c.post(ctx, "/client/sendMessage/"+session, map[string]any{
		"chatId":      chatID,
		"contentType": "MessageMedia",
		"content": map[string]any{
			"mimetype": mimetype,
			"data":     base64.StdEncoding.EncodeToString(data),
			"filename": filename,
		},
		"options": map[string]any{
			"caption": caption,
		},
	}, nil)
}

// Transcribe manda o áudio em base64 para o serviço de transcrição do
// gateway e devolve o texto. O chamador controla o prazo via ctx.
func (c *Client) Transcribe(ctx context.Context, session, audioBase64, filename string) (string, error) {
	if !strings.HasPrefix(audioBase64, "data:audio/") {
		audioBase64 = "data:audio/ogg;base64," + audioBase64
	}
	var out struct {
		Transcription string `json:"transcription"`
	}
	err := c.post(ctx, "/audio/transcribe/"+session, map[string]any{
		"audioBase64": audioBase64,
		"filename":    filename,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Transcription == "" {
		return "", fmt.Errorf("resposta sem transcrição")
	}
	return out.Transcription, nil
}
