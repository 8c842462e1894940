// Package metrics registra os contadores Prometheus do bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estoque_webhook_events_total",
		Help: "Eventos recebidos no webhook, por tipo.",
	}, []string{"event"})

	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estoque_messages_processed_total",
		Help: "Mensagens de chat processadas, por tipo de resposta.",
	}, []string{"kind"})

	Transcriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estoque_transcriptions_total",
		Help: "Transcrições de áudio, por resultado.",
	}, []string{"result"})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estoque_alerts_sent_total",
		Help: "Mensagens de alerta de estoque enviadas.",
	})
)
