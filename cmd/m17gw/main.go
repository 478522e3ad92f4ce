// m17gw bridges an M17 reflector to a live WebSocket monitor: it keeps
// the reflector session, decodes incoming IP frames, and fans the frame
// activity out to browser clients alongside Prometheus metrics.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kc1awv/m17-core/internal/config"
	"github.com/kc1awv/m17-core/internal/cors"
	log "github.com/kc1awv/m17-core/internal/logger"
	"github.com/kc1awv/m17-core/internal/monitor"
	"github.com/kc1awv/m17-core/internal/reflector"
	"github.com/kc1awv/m17-core/internal/status"
)

func corsMiddleware(rules cors.Rules, allowedMethods, allowedHeaders []string, next http.Handler) http.Handler {
	headers := strings.Join(allowedHeaders, ", ")
	methods := strings.Join(allowedMethods, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		if origin := r.Header.Get("Origin"); origin != "" && rules.Allow(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pumpFrames forwards decoded reflector traffic to the monitor hub and
// keeps the active-stream gauge honest.
func pumpFrames(client *reflector.Client, hub *monitor.Hub) {
	activeStreams := make(map[uint16]struct{})

	for frame := range client.Frames {
		if _, ok := activeStreams[frame.StreamID]; !ok {
			activeStreams[frame.StreamID] = struct{}{}
			status.RecordStreamStarted()
		}
		if frame.IsLast() {
			delete(activeStreams, frame.StreamID)
			status.RecordStreamEnded()
		}

		hub.Broadcast(monitor.FrameEvent{
			Kind:        "stream",
			StreamID:    frame.StreamID,
			Src:         frame.LSF.Src.Callsign(),
			Dst:         frame.LSF.Dst.Callsign(),
			TypeField:   frame.LSF.Type,
			FrameNumber: frame.FrameNumber &^ 0x8000,
			EOT:         frame.IsLast(),
		})
	}

	for range activeStreams {
		status.RecordStreamEnded()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := reflector.NewListStore()
	store.Init()
	store.StartUpdater(ctx)

	hub := monitor.NewHub(monitor.Config{
		Origins:      cfg.AllowedOrigins,
		ServerName:   cfg.Callsign,
		PingInterval: cfg.WSPingInterval,
		PongWait:     cfg.WSPongWait,
		MaxClients:   cfg.MaxClients,
	})

	var client *reflector.Client
	if cfg.ReflectorAddr != "" {
		if cfg.Callsign == "" {
			log.Fatal("CALLSIGN is required when REFLECTOR_ADDR is set")
		}
		client, err = reflector.NewClient(ctx, cfg.ReflectorAddr, cfg.Callsign, cfg.Module)
		if err != nil {
			log.Fatal("failed to connect to reflector", "err", err, "addr", cfg.ReflectorAddr)
		}
		client.Designator = store.LookupDesignator(cfg.ReflectorAddr)
		go pumpFrames(client, hub)
		go func() {
			for ev := range client.Events {
				if ev == reflector.EventNACK {
					hub.Broadcast(monitor.FrameEvent{Kind: "control", Control: "NACK"})
				}
			}
		}()
	} else {
		log.Warn("REFLECTOR_ADDR not set; running monitor only")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/reflectors", func(w http.ResponseWriter, r *http.Request) {
		if err := writeJSONResponse(w, store.Reflectors()); err != nil {
			log.Warn("Error writing reflector list", "err", err)
		}
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		resp := struct {
			Callsign  string `json:"callsign"`
			Reflector string `json:"reflector,omitempty"`
			Module    string `json:"module"`
			Clients   int    `json:"clients"`
		}{
			Callsign:  cfg.Callsign,
			Reflector: cfg.ReflectorAddr,
			Module:    string(cfg.Module),
			Clients:   hub.Count(),
		}
		if err := writeJSONResponse(w, resp); err != nil {
			log.Warn("Error writing status", "err", err)
		}
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      corsMiddleware(cfg.AllowedOrigins, cfg.AllowedMethods, cfg.AllowedHeaders, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info("m17gw listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	if client != nil {
		client.Close()
	}
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error", "err", err)
	}
}
