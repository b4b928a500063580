package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/cargo-dispatch/agent/agents/decider"
	"github.com/tanpawarit/cargo-dispatch/agent/agents/dispatcher"
	apix "github.com/tanpawarit/cargo-dispatch/agent/api"
	llmx "github.com/tanpawarit/cargo-dispatch/agent/llm"
	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
	toolx "github.com/tanpawarit/cargo-dispatch/agent/tool"
	configx "github.com/tanpawarit/cargo-dispatch/pkg/config"
	"github.com/tanpawarit/cargo-dispatch/pkg/metrics"
	qstashx "github.com/tanpawarit/cargo-dispatch/pkg/qstash"
)

type app struct {
	httpCfg apix.Config
	store   shipmentx.Store
	server  *http.Server
}

func newApp(ctx context.Context) (*app, error) {
	storeCfg, err := configx.New[shipmentx.Config]("STORE")
	if err != nil {
		return nil, err
	}
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, err
	}
	pricing, err := configx.New[toolx.Pricing]("QUOTE")
	if err != nil {
		return nil, err
	}
	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	dispatchCfg, err := configx.New[dispatcher.Config]("DISPATCH")
	if err != nil {
		return nil, err
	}
	httpCfg, err := configx.New[apix.Config]("HTTP")
	if err != nil {
		return nil, err
	}

	store, err := shipmentx.Open(ctx, *storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open shipment store: %w", err)
	}
	log.Info().Str("driver", storeCfg.Driver).Msg("shipment store ready")

	var notifier toolx.Notifier
	if qstashCfg.Enabled() {
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("qstash client: %w", err)
		}
		notifier, err = toolx.NewQueueNotifier(client, qstashCfg.Destination)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info().Str("destination", qstashCfg.Destination).Msg("booking notifications enabled")
	}

	actions, err := toolx.NewCargoRegistry(toolx.CargoDeps{
		Store:    store,
		Pricing:  *pricing,
		Notifier: notifier,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	model, err := decider.New(ctx, *llmCfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build decider: %w", err)
	}
	log.Info().Str("backend", llmCfg.NormalizedBackend()).Str("model", llmCfg.Model).Msg("model ready")

	recorder := metrics.New()
	d, err := dispatcher.New(model, actions, *dispatchCfg, dispatcher.WithRecorder(recorder))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	srv, err := apix.NewServer(d, store,
		apix.WithMetrics(recorder.Handler()),
		apix.WithMaxBodyBytes(httpCfg.MaxBodyBytes),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		httpCfg: *httpCfg,
		store:   store,
		server:  srv.HTTPServer(*httpCfg),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
