package httpgin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucasvdj/rifa-go/internal/config"
	"github.com/lucasvdj/rifa-go/internal/domain"
	"github.com/lucasvdj/rifa-go/internal/pix"
	redisrepo "github.com/lucasvdj/rifa-go/internal/repository/redis"
	"github.com/lucasvdj/rifa-go/internal/service"
	"github.com/lucasvdj/rifa-go/internal/service/admin"
	"github.com/lucasvdj/rifa-go/internal/service/checkout"
	"github.com/lucasvdj/rifa-go/internal/service/identity"
	"github.com/lucasvdj/rifa-go/internal/service/luck"
	"github.com/lucasvdj/rifa-go/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const sessionHeader = "X-Session-Token"

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	cfg *config.Config,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/raffles/:id", handleGetRaffle(svcs, cfg))
	r.GET("/raffles/:id/availability", handleGetAvailability(svcs))
	r.GET("/raffles/:id/tickets", handleListTickets(svcs))
	r.GET("/raffles/:id/top-buyers", handleTopBuyers(svcs))
	r.GET("/raffles/:id/analysis", handleAnalysis(svcs))
	r.GET("/raffles/:id/bonus-number", handleBonusNumber(svcs))

	r.POST("/raffles/:id/checkout", handleCheckout(svcs, idem))

	r.POST("/session", handleCreateSession(svcs))
	r.GET("/me/tickets", handleMyTickets(svcs, cfg))
	r.GET("/me/purchases", handleMyPurchases(svcs, cfg))

	r.GET("/payment/pix", handlePixInfo(cfg))
	r.GET("/payment/pix/qr.png", handlePixQR(cfg))

	// Admin-API
	// TODO: add admin auth middleware
	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/raffles", handleCreateRaffle(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get raffle summary
// @Param    id  path  string  true  "Raffle ID"
// @Success  200  {object}  RaffleSummaryResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /raffles/{id} [get]
func handleGetRaffle(svcs *service.Services, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raffleID := c.Param("id")

		raffle, err := svcs.Query.GetRaffle(c.Request.Context(), raffleID)
		if err != nil {
			respondErr(c, err)
			return
		}

		counts, err := svcs.Query.Counts(c.Request.Context(), raffleID)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := RaffleSummaryResponse{
			ID:             raffle.ID,
			TotalNumbers:   raffle.TotalNumbers,
			SoldCount:      counts.Sold,
			AvailableCount: counts.Available,
			GoldenNumbers:  formatNumbers(cfg.Raffle.GoldenNumbers),
		}
		if counts.Total > 0 {
			resp.PercentageSold = float64(counts.Sold) / float64(counts.Total) * 100
		}

		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=60", true)
	}
}

// @Summary  Get sold/available counters
// @Param    id  path  string  true  "Raffle ID"
// @Success  200  {object}  CountsResponse
// @Router   /raffles/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := svcs.Query.Counts(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := CountsResponse{
			SoldCount:      counts.Sold,
			AvailableCount: counts.Available,
			TotalNumbers:   counts.Total,
		}

		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=15", true)
	}
}

// @Summary  List ticket grid
// @Param    id     path   string  true  "Raffle ID"
// @Param    only   query  string  false "sold | available"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   TicketResponse
// @Router   /raffles/{id}/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var onlySold *bool
		switch c.Query("only") {
		case "sold":
			v := true
			onlySold = &v
		case "available":
			v := false
			onlySold = &v
		}

		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		tickets, err := svcs.Query.ListTickets(
			c.Request.Context(),
			c.Param("id"),
			onlySold,
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]TicketResponse, 0, len(tickets))
		for _, t := range tickets {
			out = append(out, ticketToResponse(t))
		}

		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Leaderboard of buyers by ticket count
// @Param    id     path   string  true  "Raffle ID"
// @Param    limit  query  int     false "rows (default 5)"
// @Success  200  {array}  TopBuyerResponse
// @Router   /raffles/{id}/top-buyers [get]
func handleTopBuyers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 5)

		buyers, err := svcs.Query.TopBuyers(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]TopBuyerResponse, 0, len(buyers))
		for _, b := range buyers {
			out = append(out, TopBuyerResponse{
				UserID:      b.BuyerID.String(),
				UserName:    b.DisplayName,
				UserPhoto:   b.PhotoURL,
				TicketCount: b.TicketCount,
			})
		}

		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Mock lucky-number analysis
// @Param    id  path  string  true  "Raffle ID"
// @Success  200  {object}  AnalysisResponse
// @Failure  409  {object}  ErrorResponse "sold out"
// @Router   /raffles/{id}/analysis [get]
func handleAnalysis(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		pick, err := svcs.Luck.Analyze(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, AnalysisResponse{
			Number:      pick.Number,
			Formatted:   domain.FormatNumber(pick.Number),
			Probability: pick.Probability,
		})
	}
}

// @Summary  Today's bonus number
// @Param    id  path  string  true  "Raffle ID"
// @Success  200  {object}  BonusNumberResponse
// @Router   /raffles/{id}/bonus-number [get]
func handleBonusNumber(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svcs.Luck.BonusNumber(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, BonusNumberResponse{
			Number:    n,
			Formatted: domain.FormatNumber(n),
			Date:      time.Now().Format("2006-01-02"),
		})
	}
}

// @Summary  Checkout (idempotent): buy N numbers or one chosen number
// @Param    id   path  string           true  "Raffle ID"
// @Param    req  body  CheckoutRequest  true  "payload"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  CheckoutResponse
// @Success  202  {object}  PendingIdentityResponse  "retry with sessionToken"
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "number unavailable / insufficient / lost race"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Failure  503  {object}  ErrorResponse  "store unavailable"
// @Router   /raffles/{id}/checkout [post]
func handleCheckout(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		raffleID := c.Param("id")

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemCheckout(raffleID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		releaseIdem := func() {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
		}

		out, err := svcs.Checkout.Purchase(
			c.Request.Context(),
			c.GetHeader(sessionHeader),
			checkout.Input{
				RaffleID:     raffleID,
				Quantity:     req.Quantity,
				ChosenNumber: req.ChosenNumber,
			},
			"ip:"+c.ClientIP(),
		)
		if err != nil {
			releaseIdem()
			if errors.Is(err, checkout.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: "muitas tentativas, aguarde um instante"},
				)
				return
			}
			respondErr(c, err)
			return
		}

		if out.PendingIdentity {
			// a deferral, not a result: don't burn the idempotency key
			releaseIdem()
			c.Header(sessionHeader, out.SessionToken)
			c.JSON(http.StatusAccepted, PendingIdentityResponse{
				Status:       "pending_identity",
				SessionToken: out.SessionToken,
				Message:      "Aguardando autenticação. Tente confirmar novamente.",
			})
			return
		}

		formatted := formatNumbers(out.Numbers)
		resp := CheckoutResponse{
			PurchaseID:    out.PurchaseID.String(),
			Numbers:       formatted,
			GoldenNumbers: formatNumbers(out.GoldenNumbers),
			TotalCentavos: out.TotalCentavos,
			Message: fmt.Sprintf(
				"Pagamento confirmado! Você comprou %d número(s): %s",
				len(formatted), strings.Join(formatted, ", "),
			),
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Create anonymous session
// @Success  201  {object}  SessionResponse
// @Router   /session [post]
func handleCreateSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, buyer, err := svcs.Identity.Bootstrap(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, SessionResponse{
			SessionToken: token,
			UserID:       buyer.ID.String(),
			UserName:     buyer.DisplayName,
			Anonymous:    buyer.Anonymous,
		})
	}
}

// @Summary  My ticket numbers
// @Param    raffle  query  string  false  "Raffle ID (defaults to the active raffle)"
// @Success  200  {object}  MyTicketsResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /me/tickets [get]
func handleMyTickets(svcs *service.Services, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyer, err := svcs.Identity.Resolve(c.Request.Context(), c.GetHeader(sessionHeader))
		if err != nil {
			respondErr(c, err)
			return
		}

		raffleID := c.Query("raffle")
		if raffleID == "" {
			raffleID = cfg.Raffle.ID
		}

		numbers, err := svcs.Query.MyNumbers(c.Request.Context(), raffleID, buyer.ID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, MyTicketsResponse{Numbers: formatNumbers(numbers)})
	}
}

// @Summary  My purchase history
// @Param    raffle  query  string  false  "Raffle ID (defaults to the active raffle)"
// @Success  200  {array}  PurchaseResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /me/purchases [get]
func handleMyPurchases(svcs *service.Services, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyer, err := svcs.Identity.Resolve(c.Request.Context(), c.GetHeader(sessionHeader))
		if err != nil {
			respondErr(c, err)
			return
		}

		raffleID := c.Query("raffle")
		if raffleID == "" {
			raffleID = cfg.Raffle.ID
		}

		purchases, err := svcs.Query.MyPurchases(c.Request.Context(), raffleID, buyer.ID)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]PurchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			out = append(out, purchaseToResponse(p))
		}

		c.JSON(http.StatusOK, out)
	}
}

// @Summary  PIX payment info (static BR Code + combo pricing)
// @Success  200  {object}  PixInfoResponse
// @Router   /payment/pix [get]
func handlePixInfo(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tiers := make([]PixPricingTier, 0, 3)
		for _, q := range []int{1, 3, 7} {
			tiers = append(tiers, PixPricingTier{
				Quantity:      q,
				TotalCentavos: cfg.Pricing.Total(q),
			})
		}

		c.JSON(http.StatusOK, PixInfoResponse{Code: cfg.Pix.Code, Tiers: tiers})
	}
}

// @Summary  PIX BR Code as a QR PNG
// @Param    size  query  int  false  "image size in px (default 256)"
// @Produce  png
// @Success  200  {file}  byte
// @Router   /payment/pix/qr.png [get]
func handlePixQR(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		size := parseIntDefault(c.Query("size"), 256)

		img, err := pix.QRCodePNG(cfg.Pix.Code, size)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, "image/png", img)
	}
}

// @Summary  Create raffle and seed its ticket pool
// @Param    req  body  CreateRaffleRequest  true  "payload"
// @Success  201  {object}  CreateRaffleResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/raffles [post]
func handleCreateRaffle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRaffleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		seeded, err := svcs.Admin.CreateRaffle(c.Request.Context(), req.ID, req.TotalNumbers)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateRaffleResponse{RaffleID: req.ID, Seeded: seeded})
	}
}

// --- Helpers ---

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	// checkout: typed errors carry the offending number for the message
	var invalidNum checkout.InvalidNumberError
	if errors.As(err, &invalidNum) {
		badRequest(c, fmt.Sprintf(
			"Número inválido %q. Escolha um número entre 001 e %d.",
			invalidNum.Raw, invalidNum.Max,
		))
		return
	}

	var taken checkout.NumberTakenError
	if errors.As(err, &taken) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: fmt.Sprintf(
			"O número %s já foi vendido.", domain.FormatNumber(taken.Number),
		)})
		return
	}

	var unavailable checkout.NumberUnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: fmt.Sprintf(
			"O número %s não está mais disponível.", domain.FormatNumber(unavailable.Number),
		)})
		return
	}

	var insufficient checkout.InsufficientTicketsError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: fmt.Sprintf(
			"Não há números suficientes: restam apenas %d.", insufficient.Available,
		)})
		return
	}

	switch {
	// checkout service
	case errors.Is(err, checkout.ErrInvalidNumber),
		errors.Is(err, checkout.ErrInvalidQuantity):
		badRequest(c, "Pedido inválido.")
	case errors.Is(err, checkout.ErrNumberTaken),
		errors.Is(err, checkout.ErrNumberUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Número indisponível."})
	case errors.Is(err, checkout.ErrInsufficientTickets):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Não há números suficientes disponíveis."})
	case errors.Is(err, checkout.ErrConflictRetry):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Outro comprador levou esse número. Tente novamente."})
	case errors.Is(err, checkout.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Serviço temporariamente indisponível."})
	case errors.Is(err, checkout.ErrRaffleNotFound),
		errors.Is(err, query.ErrRaffleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rifa não encontrada."})
	// luck service
	case errors.Is(err, luck.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Todos os números já foram vendidos."})
	// identity service
	case errors.Is(err, identity.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Sessão inválida ou expirada."})
	// admin service
	case errors.Is(err, admin.ErrRaffleConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Rifa já existe."})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Algo deu errado."})
	}
}
