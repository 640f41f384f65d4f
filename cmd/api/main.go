package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/handler"
	apimiddleware "foodshare/internal/adapter/api/middleware"
	"foodshare/internal/adapter/api/router"
	"foodshare/internal/adapter/repository"
	"foodshare/internal/adapter/repository/memory"
	domainrepo "foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/auth"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
	"foodshare/pkg/config"
	"foodshare/pkg/logger"
)

type repositories struct {
	users         domainrepo.UserRepository
	chats         domainrepo.ChatRepository
	notifications domainrepo.NotificationRepository
	listings      domainrepo.ListingRepository
	orders        domainrepo.OrderRepository
	reviews       domainrepo.ReviewRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		opt       option.ClientOption
		cleanup   []func()
		needCloud = cfg.StorageDriver == config.StorageFirestore || cfg.AuthProvider == config.AuthProviderFirebase
	)
	if needCloud {
		if cfg.ServiceAccountJSON != "" {
			logger.Info().Msg("using service account from environment")
			opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
		} else {
			logger.Info().Str("path", cfg.ServiceAccountPath).Msg("using service account file")
			opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
		}
	}

	var repos repositories
	switch cfg.StorageDriver {
	case config.StorageFirestore:
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Firestore client")
		}
		cleanup = append(cleanup, func() { firestoreClient.Close() })

		repos = repositories{
			users:         repository.NewFirestoreUserRepository(firestoreClient),
			chats:         repository.NewFirestoreChatRepository(firestoreClient),
			notifications: repository.NewFirestoreNotificationRepository(firestoreClient),
			listings:      repository.NewFirestoreListingRepository(firestoreClient),
			orders:        repository.NewFirestoreOrderRepository(firestoreClient),
			reviews:       repository.NewFirestoreReviewRepository(firestoreClient),
		}
	default:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		repos = repositories{
			users:         memory.NewUserRepository(),
			chats:         memory.NewChatRepository(),
			notifications: memory.NewNotificationRepository(),
			listings:      memory.NewListingRepository(),
			orders:        memory.NewOrderRepository(),
			reviews:       memory.NewReviewRepository(),
		}
		if cfg.IsDevelopment() {
			seedDemoUsers(ctx, repos.users)
		}
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)

	var verifier usecase.TokenVerifier = jwtService
	if cfg.AuthProvider == config.AuthProviderFirebase {
		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize Firebase")
		}

		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize Firebase Auth")
		}
		verifier = firebase.NewFirebaseAuthClient(authClient)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	wsManager := websocket.NewManager(m)

	rateLimiter := ratelimit.NewRateLimiter(nil)
	rateLimiter.StartCleanupRoutine(ctx)

	authUseCase := usecase.NewAuthUseCase(repos.users, verifier, jwtService)
	notificationUseCase := usecase.NewNotificationUseCase(repos.notifications, wsManager, m, cfg.NotificationListLimit)
	presenceUseCase := usecase.NewPresenceUseCase(repos.users, wsManager, m)
	typingUseCase := usecase.NewTypingUseCase(wsManager, rateLimiter, cfg.TypingTTL)
	chatUseCase := usecase.NewChatUseCase(repos.chats, repos.users, repos.listings, notificationUseCase, wsManager, presenceUseCase, rateLimiter, m)
	listingUseCase := usecase.NewListingUseCase(repos.listings, repos.users, wsManager)
	orderUseCase := usecase.NewOrderUseCase(repos.orders, repos.listings, repos.users, notificationUseCase, wsManager)
	reviewUseCase := usecase.NewReviewUseCase(repos.reviews, repos.users, repos.orders, notificationUseCase)

	validator := api.NewValidator()

	handlers := handler.Setup(handler.Dependencies{
		AuthUseCase:         authUseCase,
		ChatUseCase:         chatUseCase,
		NotificationUseCase: notificationUseCase,
		ListingUseCase:      listingUseCase,
		OrderUseCase:        orderUseCase,
		ReviewUseCase:       reviewUseCase,
		PresenceUseCase:     presenceUseCase,
		TypingUseCase:       typingUseCase,
		Manager:             wsManager,
		Validator:           validator,
		AllowedOrigins:      cfg.AllowedOrigins,
		SendBuffer:          cfg.WSSendBuffer,
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Validator = validator

	router.Setup(e, handlers, apimiddleware.NewAuthMiddleware(authUseCase), rateLimiter, router.Options{
		DevTokens: cfg.IsDevelopment() && cfg.AuthProvider == config.AuthProviderJWT,
		Gatherer:  registry,
	})

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Str("storage", cfg.StorageDriver).Str("auth", cfg.AuthProvider).Msg("starting server")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// hijacked websocket connections are not tracked by e.Shutdown
	if err := handlers.WebSocket.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("websocket connections did not drain")
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	for _, fn := range cleanup {
		fn()
	}
}
