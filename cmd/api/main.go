package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"storefront-notify-relay/internal/application"
	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/infrastructure/cache"
	"storefront-notify-relay/internal/infrastructure/config"
	"storefront-notify-relay/internal/infrastructure/metrics"
	"storefront-notify-relay/internal/infrastructure/pubsub"
	"storefront-notify-relay/internal/infrastructure/repository"
	"storefront-notify-relay/internal/infrastructure/repository/memory"
	"storefront-notify-relay/internal/infrastructure/telegram"
	"storefront-notify-relay/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize repositories: Mongo when configured, in-process otherwise
	var (
		agencyRepo      ports.AgencyRepository
		storeRepo       ports.StoreRepository
		subscriberRepo  ports.SubscriberRepository
		deliveryLogRepo ports.DeliveryLogRepository
	)
	if cfg.MongoURI != "" {
		client, db, err := repository.Connect(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		agencyRepo = repository.NewMongoAgencyRepository(db)
		storeRepo = repository.NewMongoStoreRepository(db)
		subscriberRepo = repository.NewMongoSubscriberRepository(db)
		deliveryLogRepo = repository.NewMongoDeliveryLogRepository(db)
	} else {
		logger.Warn().Msg("MONGODB_URI not set, using in-memory registries; bindings will not survive a restart")
		agencyRepo = memory.NewAgencyRepository()
		storeRepo = memory.NewStoreRepository()
		subscriberRepo = memory.NewSubscriberRepository()
		deliveryLogRepo = memory.NewDeliveryLogRepository()
	}

	// Optional Redis-backed stats cache
	var statsCache ports.StatsCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to parse REDIS_URL")
		}
		statsCache = cache.NewRedisStatsCache(redis.NewClient(opts), 30*time.Second, logger)
	}

	if cfg.BotToken == "" {
		logger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, outbound sends will be rejected by the platform")
	}

	// Initialize transport and metrics
	messenger := telegram.NewClientWithOptions(
		cfg.BotToken,
		cfg.BotAPIBaseURL,
		&http.Client{Timeout: 5 * time.Second},
		telegram.DefaultRetryConfig(),
		logger,
	)
	relayMetrics := metrics.NewRelayMetrics()
	deliveryFeed := pubsub.NewDeliveryFeed(logger)

	// Initialize application services
	tenantService := application.NewTenantService(agencyRepo, storeRepo, logger)
	subscriberService := application.NewSubscriberService(subscriberRepo, logger)
	notifyService := application.NewNotifyService(
		tenantService,
		subscriberService,
		deliveryLogRepo,
		messenger,
		deliveryFeed,
		relayMetrics,
		cfg.MinOrderAmount,
		cfg.Language,
		logger,
	)
	botService := application.NewBotService(
		tenantService,
		subscriberService,
		messenger,
		relayMetrics,
		cfg.Language,
		logger,
	)
	statsService := application.NewStatsService(deliveryLogRepo, statsCache, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Webhook endpoints
	r.Post("/webhook/order", orderWebhookHandler(notifyService, cfg.WebhookSecret, logger))
	r.Post("/bot/webhook", botWebhookHandler(botService, logger))

	// Admin surface (JSON, token-guarded)
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuthMiddleware(cfg.AdminToken, logger))

		r.Post("/agencies", createAgencyHandler(tenantService, logger))
		r.Get("/agencies", listAgenciesHandler(tenantService, logger))
		r.Post("/stores", createStoreHandler(tenantService, logger))
		r.Get("/stores", listStoresHandler(tenantService, subscriberRepo, logger))
		r.Get("/stores/{storeID}/subscribers", listSubscribersHandler(subscriberService, logger))
		r.Get("/stats", statsHandler(statsService, logger))
		r.Get("/events", eventsHandler(deliveryFeed, logger))
		r.Post("/reset", resetHandler(agencyRepo, storeRepo, subscriberRepo, deliveryLogRepo, logger))
	})

	logger.Info().
		Str("port", cfg.Port).
		Str("language", cfg.Language).
		Float64("minOrderAmount", cfg.MinOrderAmount).
		Msg("Starting notification relay")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

type orderWebhookResponse struct {
	OK      bool   `json:"ok"`
	Sent    *int   `json:"sent,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// orderWebhookHandler handles inbound order events from the storefront
// platform. Business-level skips and partial delivery failures both
// acknowledge with 200; only internal faults yield a 5xx.
func orderWebhookHandler(notifyService *application.NotifyService, secret string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			provided := r.Header.Get("X-Webhook-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				logger.Warn().Msg("Invalid webhook secret")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, orderWebhookResponse{OK: false, Error: "failed to read request body"})
			return
		}
		defer r.Body.Close()

		result, err := notifyService.ProcessOrderWebhook(r.Context(), payload)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to process order webhook")
			writeJSON(w, http.StatusInternalServerError, orderWebhookResponse{OK: false, Error: "internal error"})
			return
		}

		if result.Skipped {
			writeJSON(w, http.StatusOK, orderWebhookResponse{OK: true, Skipped: true, Reason: result.Reason})
			return
		}
		writeJSON(w, http.StatusOK, orderWebhookResponse{OK: true, Sent: &result.Sent})
	}
}

// botWebhookHandler handles inbound updates from the messaging platform.
// It acknowledges 200 no matter what happens internally; an unacked
// update would only be redelivered in a storm.
func botWebhookHandler(botService *application.BotService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update telegram.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn().Err(err).Msg("Failed to decode bot update")
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		if update.Message == nil || update.Message.Text == "" {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		profile := domain.SubscriberProfile{}
		if update.Message.From != nil {
			profile.FirstName = update.Message.From.FirstName
			profile.LastName = update.Message.From.LastName
			profile.Username = update.Message.From.Username
		}

		if err := botService.HandleMessage(r.Context(), update.Message.ChatID(), update.Message.Text, profile); err != nil {
			logger.Error().
				Err(err).
				Str("chatId", update.Message.ChatID()).
				Msg("Failed to handle bot update")
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// adminAuthMiddleware guards the admin surface with a shared token.
func adminAuthMiddleware(token string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "admin surface disabled, set ADMIN_TOKEN"})
				return
			}
			provided := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func createAgencyHandler(tenantService *application.TenantService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Notes string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		agency, err := tenantService.CreateAgency(r.Context(), req.Name, req.Notes)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create agency")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, agency)
	}
}

func listAgenciesHandler(tenantService *application.TenantService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agencies, err := tenantService.ListAgencies(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list agencies")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, agencies)
	}
}

func createStoreHandler(tenantService *application.TenantService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AgencyID      string `json:"agency_id"`
			Name          string `json:"name"`
			IntegrationID string `json:"integration_id"`
			AccessToken   string `json:"access_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		store, err := tenantService.CreateStore(r.Context(), application.CreateStoreInput{
			AgencyID:      req.AgencyID,
			Name:          req.Name,
			IntegrationID: req.IntegrationID,
			AccessToken:   req.AccessToken,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "integration id or link code already in use"})
				return
			}
			logger.Error().Err(err).Msg("Failed to create store")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, store)
	}
}

func listStoresHandler(tenantService *application.TenantService, subscriberRepo ports.SubscriberRepository, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stores, err := tenantService.ListStores(r.Context(), subscriberRepo)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list stores")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, stores)
	}
}

func listSubscribersHandler(subscriberService *application.SubscriberService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID := chi.URLParam(r, "storeID")
		subs, err := subscriberService.ListActiveByStore(r.Context(), storeID)
		if err != nil {
			logger.Error().Err(err).Str("storeId", storeID).Msg("Failed to list subscribers")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func statsHandler(statsService *application.StatsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := statsService.Stats(r.Context(), r.URL.Query().Get("store_id"))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to aggregate stats")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// eventsHandler streams delivery events as server-sent events until the
// client disconnects. An optional store_id query narrows the stream to
// one store.
func eventsHandler(feed *pubsub.DeliveryFeed, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
			return
		}

		var filter *pubsub.DeliveryFilter
		if storeID := r.URL.Query().Get("store_id"); storeID != "" {
			filter = &pubsub.DeliveryFilter{StoreID: storeID}
		}
		sub := feed.Subscribe(r.Context(), filter)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case entry, ok := <-sub.Events:
				if !ok {
					return
				}
				data, err := json.Marshal(entry)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to encode delivery event")
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}

// resetHandler wipes every registry. Destructive, kept behind the admin
// token for operators resetting a demo environment.
func resetHandler(
	agencyRepo ports.AgencyRepository,
	storeRepo ports.StoreRepository,
	subscriberRepo ports.SubscriberRepository,
	deliveryLogRepo ports.DeliveryLogRepository,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, reset := range []func(context.Context) error{
			deliveryLogRepo.Reset,
			subscriberRepo.Reset,
			storeRepo.Reset,
			agencyRepo.Reset,
		} {
			if err := reset(ctx); err != nil {
				logger.Error().Err(err).Msg("Failed to reset registries")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
		}
		logger.Warn().Msg("All registries reset")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
