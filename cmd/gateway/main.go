package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CaptureStatus represents the state of a payment capture
type CaptureStatus string

const (
	StatusCaptured CaptureStatus = "CAPTURED"
	StatusDeclined CaptureStatus = "DECLINED"
	StatusPending  CaptureStatus = "PENDING"
)

// CaptureRequest represents a request to capture an online payment
type CaptureRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	CardToken   string `json:"card_token"`
}

// CaptureResponse represents the outcome of a capture attempt
type CaptureResponse struct {
	OrderNumber string        `json:"order_number"`
	GatewayRef  string        `json:"gateway_ref"`
	Status      CaptureStatus `json:"status"`
	CapturedAt  *time.Time    `json:"captured_at,omitempty"`
	ErrorCode   string        `json:"error_code,omitempty"`
	ErrorMsg    string        `json:"error_msg,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// StatusCheckResponse represents a capture status lookup
type StatusCheckResponse struct {
	OrderNumber string        `json:"order_number"`
	GatewayRef  string        `json:"gateway_ref"`
	Status      CaptureStatus `json:"status"`
	CapturedAt  *time.Time    `json:"captured_at,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	GatewayID   string    `json:"gateway_id"`
	Timestamp   time.Time `json:"timestamp"`
	ApprovalRate float64  `json:"approval_rate"`
}

// MockGateway simulates a card payment processor. Approved captures
// are reported back to the settlement API over its payment callback.
type MockGateway struct {
	approvalRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	callbackURL  string
	gatewayID    string
	rng          *rand.Rand
	mu           sync.Mutex
	captures     map[string]*CaptureResponse
}

func NewMockGateway(approvalRate float64, minDelay, maxDelay time.Duration, callbackURL string) *MockGateway {
	return &MockGateway{
		approvalRate: approvalRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		callbackURL:  callbackURL,
		gatewayID:    "MOCK_GATEWAY_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		captures:     make(map[string]*CaptureResponse),
	}
}

// simulateCapture runs the capture with a random processing delay
func (m *MockGateway) simulateCapture(req *CaptureRequest) *CaptureResponse {
	delay := m.randomDelay()
	time.Sleep(delay)

	response := &CaptureResponse{
		OrderNumber: req.OrderNumber,
		GatewayRef:  "PAY-" + uuid.New().String()[:12],
		ProcessedAt: time.Now(),
	}

	if m.shouldApprove() {
		now := time.Now()
		response.Status = StatusCaptured
		response.CapturedAt = &now

		log.Info().
			Str("order_number", req.OrderNumber).
			Str("gateway_ref", response.GatewayRef).
			Dur("delay", delay).
			Msg("Payment captured")
	} else {
		response.Status = StatusDeclined
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)

		log.Warn().
			Str("order_number", req.OrderNumber).
			Str("error_code", response.ErrorCode).
			Msg("Payment declined")
	}

	m.mu.Lock()
	m.captures[req.OrderNumber] = response
	m.mu.Unlock()

	return response
}

// notifySettlement calls the settlement API so a captured order moves
// from pending to confirmed.
func (m *MockGateway) notifySettlement(response *CaptureResponse) {
	if m.callbackURL == "" || response.Status != StatusCaptured {
		return
	}

	body, err := json.Marshal(map[string]string{"gateway_ref": response.GatewayRef})
	if err != nil {
		return
	}

	url := fmt.Sprintf("%s/api/v1/orders/%s/payment", m.callbackURL, response.OrderNumber)
	httpResp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Settlement callback failed")
		return
	}
	defer httpResp.Body.Close()

	log.Info().
		Str("order_number", response.OrderNumber).
		Int("status", httpResp.StatusCode).
		Msg("Settlement callback delivered")
}

func (m *MockGateway) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockGateway) shouldApprove() bool {
	return m.rng.Float64() < m.approvalRate
}

func (m *MockGateway) randomErrorCode() string {
	errorCodes := []string{
		"INSUFFICIENT_FUNDS",
		"CARD_EXPIRED",
		"NETWORK_ERROR",
		"TIMEOUT",
		"FRAUD_SUSPECTED",
		"ISSUER_DECLINED",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockGateway) errorMessage(code string) string {
	messages := map[string]string{
		"INSUFFICIENT_FUNDS": "The card has insufficient funds",
		"CARD_EXPIRED":       "The card has expired",
		"NETWORK_ERROR":      "Network connectivity issue with the issuer",
		"TIMEOUT":            "Capture timed out",
		"FRAUD_SUSPECTED":    "The issuer flagged the payment as suspicious",
		"ISSUER_DECLINED":    "The issuer declined the payment",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mock gateway and routes
type Handler struct {
	gateway *MockGateway
}

func NewHandler(gateway *MockGateway) *Handler {
	return &Handler{gateway: gateway}
}

// Capture handles payment capture requests
func (h *Handler) Capture(c *gin.Context) {
	var req CaptureRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("order_number", req.OrderNumber).
		Str("amount", req.Amount).
		Msg("Received capture request")

	response := h.gateway.simulateCapture(&req)
	go h.gateway.notifySettlement(response)

	statusCode := http.StatusOK
	if response.Status == StatusDeclined {
		statusCode = http.StatusAccepted // 202: accepted but declined
	}

	c.JSON(statusCode, response)
}

// GetStatus handles capture status lookups
func (h *Handler) GetStatus(c *gin.Context) {
	orderNumber := c.Param("order_number")

	if orderNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "order_number is required",
		})
		return
	}

	h.gateway.mu.Lock()
	capture, ok := h.gateway.captures[orderNumber]
	h.gateway.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no capture for this order",
		})
		return
	}

	c.JSON(http.StatusOK, StatusCheckResponse{
		OrderNumber: capture.OrderNumber,
		GatewayRef:  capture.GatewayRef,
		Status:      capture.Status,
		CapturedAt:  capture.CapturedAt,
	})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.gateway.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Gateway temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		GatewayID:    h.gateway.gatewayID,
		Timestamp:    time.Now(),
		ApprovalRate: h.gateway.approvalRate,
	})
}

// UpdateConfig allows changing gateway configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		ApprovalRate *float64 `json:"approval_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.ApprovalRate != nil {
		if *config.ApprovalRate >= 0 && *config.ApprovalRate <= 1.0 {
			h.gateway.approvalRate = *config.ApprovalRate
			log.Info().Float64("rate", *config.ApprovalRate).Msg("Updated approval rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"approval_rate": h.gateway.approvalRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/payments/capture", handler.Capture)
		v1.GET("/payments/status/:order_number", handler.GetStatus)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8082")
	approvalRate := getEnvFloat("APPROVAL_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 500*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 3*time.Second)
	callbackURL := getEnv("PAYMENT_GATEWAY_CALLBACK_URL", "")

	log.Info().
		Str("port", port).
		Float64("approval_rate", approvalRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Str("callback_url", callbackURL).
		Msg("Starting Mock Payment Gateway")

	// Create mock gateway
	gateway := NewMockGateway(approvalRate, minDelay, maxDelay, callbackURL)
	handler := NewHandler(gateway)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
