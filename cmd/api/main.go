package main

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"vexachat/internal/adapter/api"
	"vexachat/internal/adapter/api/handler"
	"vexachat/internal/adapter/api/router"
	"vexachat/internal/adapter/repository"
	"vexachat/internal/adapter/storage/fsstore"
	"vexachat/internal/adapter/storage/memstore"
	"vexachat/internal/domain/storage"
	"vexachat/internal/infrastructure/firebase"
	ws "vexachat/internal/infrastructure/websocket"
	"vexachat/internal/usecase"
	"vexachat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Without a configured Firebase project the app runs entirely on the
	// in-memory emulation; everything above the store behaves the same.
	var store storage.Store
	var uids usecase.UIDAllocator = usecase.LocalUIDs{}

	if cfg.FirebaseProject == "" {
		log.Printf("No Firebase project configured, using in-memory store")
		store = memstore.New()
	} else {
		var opt option.ClientOption
		if cfg.ServiceAccountJSON != "" {
			opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
		} else {
			opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
		}

		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}

		store = fsstore.New(firestoreClient)
		uids = firebase.NewAuthClient(authClient)
		log.Printf("Using Firestore project %s", cfg.FirebaseProject)
	}
	defer store.Close()

	userRepo := repository.NewStoreUserRepository(store)
	chatRepo := repository.NewStoreChatRepository(store)

	presence := usecase.NewPresenceTracker(userRepo)
	authUseCase := usecase.NewAuthUseCase(userRepo, presence, uids)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, authUseCase)
	profileUseCase := usecase.NewProfileUseCase(userRepo, authUseCase)

	wsManager := ws.NewManager()
	wsManager.Start(ctx)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authUseCase)
	chatHandler := handler.NewChatHandler(chatUseCase, authUseCase)
	userHandler := handler.NewUserHandler(profileUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, chatUseCase, authUseCase)

	router.Setup(e, healthHandler)
	router.SetupAuthRouter(e, authHandler)
	router.SetupChatRouter(e, chatHandler)
	router.SetupUserRouter(e, userHandler)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
