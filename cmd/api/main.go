package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"souqbalady/internal/adapter/api"
	"souqbalady/internal/adapter/api/handler"
	apimiddleware "souqbalady/internal/adapter/api/middleware"
	"souqbalady/internal/adapter/api/router"
	"souqbalady/internal/adapter/repository"
	"souqbalady/internal/domain/service"
	"souqbalady/internal/infrastructure/firebase"
	"souqbalady/internal/infrastructure/notification"
	"souqbalady/internal/infrastructure/pubsub"
	"souqbalady/internal/infrastructure/ratelimit"
	"souqbalady/internal/infrastructure/storage"
	"souqbalady/internal/infrastructure/websocket"
	"souqbalady/internal/usecase"
	"souqbalady/pkg/config"
	"souqbalady/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error("Server stopped: %+v", err)
		os.Exit(1)
	}
}

func credentials(cfg *config.Config) (option.ClientOption, error) {
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON)), nil
	}

	if cfg.FirebaseServiceAccountPath != "" {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); err != nil {
			return nil, errors.Wrapf(err, "service account file %s", cfg.FirebaseServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		return option.WithCredentialsFile(cfg.FirebaseServiceAccountPath), nil
	}

	// Application default credentials; also covers the emulators
	return nil, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cred, err := credentials(cfg)
	if err != nil {
		return err
	}
	var opts []option.ClientOption
	if cred != nil {
		opts = append(opts, cred)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to initialize Firebase")
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to initialize Firebase Auth")
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create Firestore client")
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.CORSAllowedOrigins, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to initialize Cloud Storage")
	}
	defer storageClient.Close()

	firebaseAuthClient, err := firebase.NewFirebaseAuthClient(ctx, authClient, cfg.FirebaseApiKey)
	if err != nil {
		return err
	}

	var events service.EventPublisher
	if cfg.PubSubTopicID != "" {
		events, err = pubsub.NewGooglePublisher(ctx, cfg.FirebaseProject, cfg.PubSubTopicID, logger.L(), opts...)
		if err != nil {
			return errors.Wrap(err, "failed to initialize Pub/Sub publisher")
		}
	} else {
		events = pubsub.NewNoopPublisher(logger.L())
	}
	defer events.Close()

	wsManager := websocket.NewManager()

	notifiers := []service.Notifier{wsManager}
	if cfg.FCMEnabled {
		messagingClient, err := firebaseApp.Messaging(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to initialize Firebase Cloud Messaging")
		}
		notifiers = append(notifiers, notification.NewOfflineNotifier(wsManager, notification.NewFCMNotifier(messagingClient)))
	}
	notifier := notification.NewMultiNotifier(notifiers...)

	limiter := ratelimit.NewRateLimiter(ratelimit.PerMinute(cfg.RateLimitPerMinute), ratelimit.DefaultPolicies(cfg.AuthRateLimitPerMinute))
	limiter.StartCleanupRoutine(ctx, 10*time.Minute)

	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)
	profileRepo := repository.NewFirestoreProfileRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)

	authUseCase := usecase.NewAuthUseCase(profileRepo, firebaseAuthClient)
	profileUseCase := usecase.NewProfileUseCase(profileRepo, storageClient)
	listingUseCase := usecase.NewListingUseCase(listingRepo, notifier, events, limiter)
	marketUseCase := usecase.NewMarketUseCase(listingRepo)
	messagingUseCase := usecase.NewMessagingUseCase(conversationRepo, profileRepo, notifier, limiter)

	wsManager.SetHandler(messagingUseCase)
	wsManager.Start(ctx)

	e := echo.New()
	e.HideBanner = true

	e.Use(apimiddleware.RequestID())
	e.Use(apimiddleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)

	router.Setup(e, router.Handlers{
		Health:    handler.NewHealthHandler(cfg.Environment),
		Auth:      handler.NewAuthHandler(authUseCase),
		User:      handler.NewUserHandler(profileUseCase),
		Listing:   handler.NewListingHandler(listingUseCase),
		Market:    handler.NewMarketHandler(marketUseCase),
		Chat:      handler.NewChatHandler(messagingUseCase),
		WebSocket: handler.NewWebSocketHandler(ctx, wsManager, authUseCase, cfg.CORSAllowedOrigins),
	}, authMiddleware, apimiddleware.IPRateLimit(limiter, ratelimit.ActionAuth))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server on port %s (%s)...", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
