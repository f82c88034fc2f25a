package http

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"finance-tracker-go/internal/aggregate"
	"finance-tracker-go/internal/auth"
	"finance-tracker-go/internal/config"
	"finance-tracker-go/internal/ledger"
	"finance-tracker-go/internal/logger"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/registry"
)

//go:embed schemas/transaction.schema.json
var transactionSchema []byte

// Deps are the core services the API exposes.
type Deps struct {
	Auth      *auth.Service
	Ledger    *ledger.Engine
	Registry  *registry.Registry
	Aggregate *aggregate.Engine
}

type Server struct {
	cfg       *config.Config
	log       zerolog.Logger
	validator *gojsonschema.Schema
	Deps
}

func NewServer(cfg *config.Config, log zerolog.Logger, deps Deps) (*gin.Engine, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(transactionSchema))
	if err != nil {
		return nil, fmt.Errorf("http: compiling transaction schema: %w", err)
	}
	s := &Server{cfg: cfg, log: log, validator: schema, Deps: deps}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(cfg))
	r.Use(logging(log))

	r.POST("/v1/auth/register", s.authRegister)
	r.POST("/v1/auth/login", s.authLogin)

	authorized := r.Group("/v1")
	authorized.Use(AuthMiddleware(deps.Auth))
	{
		authorized.GET("/accounts", s.listAccounts)
		authorized.POST("/accounts", s.createAccount)
		authorized.POST("/accounts/:id/toggle", s.toggleAccount)
		authorized.DELETE("/accounts/:id", s.deleteAccount)

		authorized.GET("/cards", s.listCards)
		authorized.POST("/cards", s.createCard)
		authorized.POST("/cards/:id/toggle", s.toggleCard)
		authorized.DELETE("/cards/:id", s.deleteCard)

		authorized.GET("/payment-sources", s.paymentSources)

		authorized.GET("/classifications", s.listClassifications)
		authorized.POST("/classifications", s.createClassification)
		authorized.PUT("/classifications/:id", s.updateClassification)
		authorized.DELETE("/classifications/:id", s.deleteClassification)

		authorized.GET("/categories", s.listCategories)
		authorized.GET("/categories/grouped", s.groupedCategories)
		authorized.POST("/categories", s.createCategory)
		authorized.PUT("/categories/:id", s.updateCategory)
		authorized.DELETE("/categories/:id", s.deleteCategory)

		authorized.GET("/transactions", s.listTransactions)
		authorized.POST("/transactions", s.createTransaction)
		authorized.DELETE("/transactions/:id", s.deleteTransaction)

		authorized.GET("/dashboard", s.getDashboard)
		authorized.GET("/dashboard/stats", s.getStats)
		authorized.GET("/dashboard/daily", s.getDaily)
		authorized.GET("/dashboard/categories", s.getCategoryDistribution)

		authorized.GET("/export/transactions", s.exportTransactions)
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r, nil
}

// fail maps core errors onto responses. Anything unrecognised is a 500 and
// gets logged with the request logger.
func fail(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(400, gin.H{"error": "validation_failed", "field": verr.Field, "reason": verr.Reason})
	case errors.Is(err, auth.ErrDuplicateUser):
		c.JSON(409, gin.H{"error": "user_already_exists"})
	case errors.Is(err, auth.ErrAuthentication):
		c.JSON(401, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, auth.ErrTokenInvalid):
		c.JSON(401, gin.H{"error": "invalid_token"})
	default:
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(500, gin.H{"error": "internal_error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(400, gin.H{"error": "invalid_request", "details": err.Error()})
}

func (s *Server) listAccounts(c *gin.Context) {
	accts, err := s.Ledger.ListAccounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, accts)
}

func (s *Server) createAccount(c *gin.Context) {
	var input ledger.AccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	acct, err := s.Ledger.AddAccount(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, acct)
}

func (s *Server) toggleAccount(c *gin.Context) {
	if err := s.Ledger.ToggleAccount(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "account toggled"})
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.Ledger.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "account deleted"})
}

func (s *Server) listCards(c *gin.Context) {
	cards, err := s.Ledger.ListCards(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, cards)
}

func (s *Server) createCard(c *gin.Context) {
	var input ledger.CardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	card, err := s.Ledger.AddCard(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, card)
}

func (s *Server) toggleCard(c *gin.Context) {
	if err := s.Ledger.ToggleCard(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "card toggled"})
}

func (s *Server) deleteCard(c *gin.Context) {
	if err := s.Ledger.DeleteCard(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "card deleted"})
}

func (s *Server) paymentSources(c *gin.Context) {
	src, err := s.Ledger.PaymentSources(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, src)
}

func (s *Server) listTransactions(c *gin.Context) {
	details, err := s.Aggregate.ListTransactionsWithDetails(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, details)
}

// createTransaction checks the raw body against the transaction schema
// before the ledger sees it.
func (s *Server) createTransaction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.validator.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid_json"})
		return
	}
	if !res.Valid() {
		d := []string{}
		for _, e := range res.Errors() {
			d = append(d, e.String())
		}
		c.JSON(422, gin.H{"error": "schema_invalid", "details": d})
		return
	}

	var input ledger.TransactionInput
	if err := json.Unmarshal(body, &input); err != nil {
		badRequest(c, err)
		return
	}
	tx, err := s.Ledger.AddTransaction(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(201, tx)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.Ledger.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "transaction deleted"})
}
