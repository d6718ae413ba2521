// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agromart/ledger/internal/accountdelivery"
	"github.com/agromart/ledger/internal/accountrepo"
	"github.com/agromart/ledger/internal/accountservice"
	"github.com/agromart/ledger/internal/entryrepo"
	"github.com/agromart/ledger/internal/middleware"
	"github.com/agromart/ledger/internal/productdelivery"
	"github.com/agromart/ledger/internal/productrepo"
	"github.com/agromart/ledger/internal/productservice"
	"github.com/agromart/ledger/internal/purchasedelivery"
	"github.com/agromart/ledger/internal/purchaserepo"
	"github.com/agromart/ledger/internal/purchaseservice"
	"github.com/agromart/ledger/internal/sessiondelivery"
	"github.com/agromart/ledger/internal/sessionrepo"
	"github.com/agromart/ledger/internal/sessionservice"
	"github.com/agromart/ledger/internal/userdelivery"
	"github.com/agromart/ledger/internal/userrepo"
	"github.com/agromart/ledger/internal/userservice"
	"github.com/agromart/ledger/pkg/configpkg"
	"github.com/agromart/ledger/pkg/metricspkg"
	"github.com/agromart/ledger/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewConnRepoPGS(conn)
	accountRepo := accountrepo.NewConnRepoPGS(conn)
	entryRepo := entryrepo.NewRepoPGS(conn)
	productRepo := productrepo.NewRepoPGS(conn)
	purchaseRepo := purchaserepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo, entryRepo)
	productService := productservice.New(productRepo, accountService)
	purchaseService := purchaseservice.New(purchaseRepo, accountService, productService, config.PurchaseMaxRetries)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	collector := metricspkg.NewCollector()

	userHandler := userdelivery.NewHandler(userService, sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	productHandler := productdelivery.NewHandler(productService)
	purchaseHandler := purchasedelivery.NewHandler(purchaseService, collector)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics(collector))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	engine.GET("/products", productHandler.List)
	engine.GET("/products/:id", productHandler.Get)

	engine.GET("/metrics", gin.WrapH(collector.Handler()))

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/accounts/me", accountHandler.GetMe)
	authRoutes.POST("/accounts/deposit", accountHandler.Deposit)
	authRoutes.GET("/entries", accountHandler.ListEntries)

	authRoutes.POST("/products", productHandler.Create)
	authRoutes.DELETE("/products/:id", productHandler.Deactivate)

	authRoutes.POST("/purchases", purchaseHandler.Create)
	authRoutes.GET("/purchases", purchaseHandler.List)
	authRoutes.GET("/purchases/:id", purchaseHandler.Get)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
