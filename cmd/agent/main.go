// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/confa-space/voice-agent/config"
	channel_websocket "github.com/confa-space/voice-agent/internal/channel/websocket"
	internal_session "github.com/confa-space/voice-agent/internal/session"
	internal_transformer_speechkit "github.com/confa-space/voice-agent/internal/transformer/speechkit"
	internal_type "github.com/confa-space/voice-agent/internal/type"
	"github.com/confa-space/voice-agent/pkg/commons"
	"github.com/confa-space/voice-agent/pkg/utils"
)

// echoTurnGenerator is the stand-in for the external turn-generation
// collaborator: it answers in the persona's register without any model
// behind it, which is enough to exercise the pipeline end to end.
type echoTurnGenerator struct {
	role config.RoleConfig
}

func (g *echoTurnGenerator) Generate(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s) %s", g.role.Role, input), nil
}

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("agent: %v", err)
	}
	logger, err := commons.NewApplicationLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("agent: logger: %v", err)
	}
	defer logger.Sync()

	role, err := config.GetRoleConfig(cfg.Role)
	if err != nil {
		logger.Errorf("agent: %v", err)
		os.Exit(1)
	}

	credential := internal_transformer_speechkit.Credential{
		FolderID: cfg.SpeechKit.FolderID,
		APIKey:   cfg.SpeechKit.APIKey,
		IAMToken: cfg.SpeechKit.IAMToken,
	}
	opts := utils.Option{
		"transcribe.language": cfg.SpeechKit.Language,
		"transcribe.topic":    cfg.SpeechKit.Topic,
		"audio.sample_rate":   cfg.SpeechKit.SampleRate,
		"speak.voice.id":      cfg.SpeechKit.Voice,
		"speak.role":          cfg.SpeechKit.VoiceRole,
		"speak.speed":         cfg.SpeechKit.Speed,
		"speak.model":         cfg.SpeechKit.Model,
	}

	// Missing credentials are a configuration error: fail here, before any
	// room is joined or network call made.
	stt, err := internal_transformer_speechkit.NewSpeechKitSpeechToText(logger, credential, opts)
	if err != nil {
		logger.Errorf("agent: %v", err)
		os.Exit(1)
	}
	tts, err := internal_transformer_speechkit.NewSpeechKitTextToSpeech(logger, credential, opts)
	if err != nil {
		logger.Errorf("agent: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var generator internal_type.TurnGenerator = &echoTurnGenerator{role: role}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("agent: websocket upgrade failed: %v", err)
			return
		}
		transport := channel_websocket.NewStreamer(logger, conn, cfg.SpeechKit.SampleRate, 1)
		sess := internal_session.NewSession(logger, transport, stt, tts, generator, role)

		if err := sess.Run(ctx); err != nil {
			if errors.Is(err, internal_session.ErrLeaveRequested) {
				logger.Infof("agent: leave requested, shutting down")
				stop()
				return
			}
			logger.Errorf("agent: session ended with error: %v", err)
		}
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.Infof("agent: %s listening on %s (role %q)", cfg.Name, cfg.ListenAddr, role.Role)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("agent: server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("agent: server shutdown: %v", err)
	}
	logger.Infof("agent: stopped")
}
