package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/subosito/gotenv"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/audio"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/bot"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/config"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/dialog"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/alerts"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/users"
	httpx "github.com/AdemirRed/Bot-Onn-Estoque/internal/infra/http"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/infra/logger"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/infra/metrics"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/infra/whatsapp"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/report"
	"github.com/AdemirRed/Bot-Onn-Estoque/internal/webhook"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	log.Info("banco de materiais", "materiais", cfg.Data.MaterialsDir, "estoque", cfg.Data.StockDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := materials.NewRepo(cfg.Data.MaterialsDir, cfg.Data.StockDir, cfg.Alerts.DefaultMin, log)
	dialogs := dialog.NewRepo()
	greeted := users.NewRepo(filepath.Join(cfg.Data.StateDir, "greeted-users.json"), log)
	alertEngine := alerts.NewEngine(alerts.NewRepo(cfg.Data.StateDir, log), store, log)
	reports := report.NewService(store, cfg.Data.ReportsDir, log)
	engine := bot.NewEngine(store, dialogs, greeted, alertEngine, reports, log)

	wa := whatsapp.NewClient(cfg.WhatsApp.BaseURL, cfg.WhatsApp.APIKey, log)
	audioStore := audio.NewStore()

	handler := webhook.NewHandler(engine, wa, audioStore, webhook.Options{
		Sessions:         cfg.WhatsApp.AllowedSessions,
		AllowedGroups:    cfg.WhatsApp.AllowedGroups,
		AllowPrivate:     cfg.WhatsApp.AllowPrivate,
		IgnoredContacts:  cfg.WhatsApp.IgnoredContacts,
		TranscribeWindow: time.Duration(cfg.WhatsApp.TranscribeSecs) * time.Second,
	}, log)
	batcher := audio.NewBatcher(time.Duration(cfg.WhatsApp.AudioBatchSecs)*time.Second, handler.FlushAudioBatch, log)
	handler.SetBatcher(batcher)

	dialogs.StartSweep(ctx, 5*time.Minute)
	audioStore.StartSweep(ctx, 30*time.Minute)
	handler.StartSweep(ctx, 2*time.Minute)

	sched, err := startDailyAlerts(cfg, alertEngine, wa, log)
	if err != nil {
		log.Error("agendar alertas diários", "err", err)
		return
	}
	defer sched.Stop()

	srv := httpx.New(cfg.HTTP.Addr, handler, cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("servidor http", "err", err)
		}
	}()
	log.Info("servidor iniciado", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("encerrado")
}

// startDailyAlerts agenda a verificação de estoque no horário
// configurado e manda o resumo para cada destinatário.
func startDailyAlerts(cfg config.Config, engine *alerts.Engine, wa *whatsapp.Client, log *slog.Logger) (*cron.Cron, error) {
	loc := time.Local
	if cfg.App.Timezone != "" {
		l, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone %q: %w", cfg.App.Timezone, err)
		}
		loc = l
	}

	c := cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("0 %d * * *", cfg.Alerts.Hour)
	_, err := c.AddFunc(spec, func() {
		msg, ok := engine.CheckAndAlert()
		if !ok {
			log.Info("verificação diária sem alertas")
			return
		}
		for _, to := range cfg.Alerts.Recipients {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := wa.SendText(ctx, cfg.WhatsApp.Session, to, msg); err != nil {
				log.Error("enviar alerta", "para", to, "err", err)
			} else {
				metrics.AlertsSent.Inc()
			}
			cancel()
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info("alertas diários agendados", "cron", spec, "destinatarios", len(cfg.Alerts.Recipients))
	return c, nil
}
