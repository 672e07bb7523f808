package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Beegash/BBWallet/internal/command"
	"github.com/Beegash/BBWallet/internal/config"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/handler"
	"github.com/Beegash/BBWallet/internal/ledger"
	"github.com/Beegash/BBWallet/internal/logger"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/query"
	redisClient "github.com/Beegash/BBWallet/internal/redis"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := repository.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.MigrationsAuto {
		if err := migrations.Up(db); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	publisher := events.NewPublisher(cfg, redis, log.With(zap.String("component", "publisher")))
	defer publisher.Close()

	// --- CQRS wiring ---
	userWriteRepo := repository.NewUserWriteRepository(db)
	userReadRepo := repository.NewUserReadRepository(userWriteRepo, redis, cfg.CacheTTL, log)
	childWriteRepo := repository.NewChildWriteRepository(db)
	childReadRepo := repository.NewChildReadRepository(childWriteRepo, redis, cfg.CacheTTL, log)
	investmentRepo := repository.NewInvestmentRepository(db)
	txReadRepo := repository.NewTransactionReadRepository(db, redis, cfg.CacheTTL, log)
	goalRepo := repository.NewGoalRepository(db)
	blockchainRepo := repository.NewBlockchainRepository(db)

	balanceLedger := ledger.New(
		repository.NewLedgerStore(db),
		log.With(zap.String("component", "ledger")),
		ledger.WithMaxRetries(cfg.LedgerMaxRetries),
	)

	cmdLog := log.With(zap.String("component", "command"))
	userCmds := command.NewUserCommandService(userWriteRepo, userReadRepo, publisher, cmdLog)
	childCmds := command.NewChildCommandService(childWriteRepo, childReadRepo, publisher, cmdLog)
	goalCmds := command.NewGoalCommandService(goalRepo, childReadRepo, publisher, cmdLog)
	investmentCmds := command.NewInvestmentCommandService(investmentRepo, childReadRepo, publisher, cmdLog)
	txCmds := command.NewTransactionCommandService(balanceLedger, txReadRepo, childReadRepo, publisher, cmdLog)
	blockchainCmds := command.NewBlockchainCommandService(blockchainRepo, childReadRepo, investmentRepo, publisher, cmdLog)

	jwtSecret := []byte(cfg.JWTSecret)
	authQueries := query.NewAuthQueryService(userWriteRepo, jwtSecret, cfg.JWTTTL)
	userQueries := query.NewUserQueryService(userReadRepo, childWriteRepo, investmentRepo)
	childQueries := query.NewChildQueryService(childReadRepo, goalRepo)
	txQueries := query.NewTransactionQueryService(txReadRepo, childReadRepo, investmentRepo, userReadRepo)
	blockchainQueries := query.NewBlockchainQueryService(blockchainRepo, childReadRepo)

	authHandler := handler.NewAuthHandler(authQueries)
	userHandler := handler.NewUserHandler(userCmds, userQueries)
	childHandler := handler.NewChildHandler(childCmds, goalCmds, childQueries)
	investmentHandler := handler.NewInvestmentHandler(investmentCmds, txQueries)
	txHandler := handler.NewTransactionHandler(txCmds, txQueries)
	blockchainHandler := handler.NewBlockchainHandler(blockchainCmds, blockchainQueries)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log.With(zap.String("component", "http"))))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	router.POST("/v1/users", userHandler.CreateUser)
	router.POST("/v1/auth/login", authHandler.Login)
	router.POST("/v1/auth/refresh", authHandler.RefreshToken)

	v1 := router.Group("/v1", middleware.AuthMiddleware(jwtSecret))
	{
		v1.GET("/users/:userId", userHandler.GetUser)
		v1.PATCH("/users/:userId", userHandler.UpdateUser)
		v1.POST("/users/:userId/wallet", userHandler.ConnectWallet)
		v1.DELETE("/users/:userId/wallet", userHandler.DisconnectWallet)
		v1.GET("/stats", userHandler.Stats)

		v1.POST("/children", childHandler.CreateChild)
		v1.GET("/children", childHandler.ListChildren)
		v1.GET("/children/:childId", childHandler.GetChild)
		v1.PATCH("/children/:childId", childHandler.UpdateChild)
		v1.DELETE("/children/:childId", childHandler.DeactivateChild)
		v1.PUT("/children/:childId/goal", childHandler.SetGoal)
		v1.GET("/children/:childId/goal", childHandler.GetGoal)

		v1.POST("/investments", investmentHandler.CreateInvestment)
		v1.GET("/investments", investmentHandler.ListInvestments)
		v1.GET("/investments/:investmentId", investmentHandler.GetInvestment)
		v1.PATCH("/investments/:investmentId/status", investmentHandler.UpdateInvestmentStatus)

		v1.POST("/transactions", txHandler.CreateTransaction)
		v1.GET("/transactions", txHandler.ListTransactions)
		v1.GET("/transactions/:transactionId", txHandler.GetTransaction)
		v1.PATCH("/transactions/:transactionId/status", txHandler.UpdateTransactionStatus)
		v1.GET("/reports/statement", txHandler.Statement)

		v1.POST("/contracts", blockchainHandler.CreateContract)
		v1.GET("/contracts", blockchainHandler.ListContracts)
		v1.GET("/contracts/:contractId", blockchainHandler.GetContract)
		v1.POST("/contracts/:contractId/deploy", blockchainHandler.DeployContract)

		v1.POST("/nfts", blockchainHandler.CreateNFT)
		v1.GET("/nfts", blockchainHandler.ListNFTs)
		v1.GET("/nfts/:nftId", blockchainHandler.GetNFT)
		v1.POST("/nfts/:nftId/mint", blockchainHandler.MintNFT)
		v1.POST("/nfts/:nftId/transfer", blockchainHandler.TransferNFT)

		v1.POST("/chain-transactions", blockchainHandler.CreateChainTransaction)
		v1.GET("/chain-transactions", blockchainHandler.ListChainTransactions)
		v1.GET("/chain-transactions/:chainTxId", blockchainHandler.GetChainTransaction)
		v1.POST("/chain-transactions/:chainTxId/confirm", blockchainHandler.ConfirmChainTransaction)

		v1.POST("/gas-prices", blockchainHandler.RecordGasPrice)
		v1.GET("/gas-prices/latest", blockchainHandler.LatestGasPrice)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("BBWallet API starting", zap.String("port", cfg.Port), zap.String("broker", cfg.EventBroker))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
