package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/clearpathtax/case_backend/config"
	"github.com/clearpathtax/case_backend/middlewares"
	"github.com/clearpathtax/case_backend/models"
	"github.com/clearpathtax/case_backend/tiparser"
	"github.com/clearpathtax/case_backend/utils"
	"github.com/clearpathtax/case_backend/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// RateLimiter throttles per client IP with a fixed redis window.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/readyz", func(c *gin.Context) {
		// Behind the readiness gate, so reaching here means deps are up.
		c.Status(http.StatusNoContent)
	})

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	api.POST("/auth/token", authTokenHandler())
	api.POST("/auth/logout", authLogoutHandler())

	api.POST("/cases", createCaseHandler())
	api.GET("/cases", listCasesHandler())
	api.GET("/cases/:caseNumber", getCaseHandler())
	api.PUT("/cases/:caseNumber", updateCaseHandler())
	api.POST("/cases/:caseNumber/documents", ingestDocumentHandler())
	api.POST("/cases/:caseNumber/recompute", recomputeCaseHandler())
	api.GET("/cases/:caseNumber/activity", activityHandler())
	api.GET("/cases/:caseNumber/activity-report", activityReportHandler())
	api.GET("/cases/:caseNumber/activity.xlsx", activityExcelHandler())
	api.GET("/cases/:caseNumber/income-documents", incomeDocumentsHandler())
	api.GET("/cases/:caseNumber/income-documents/:id", getIncomeDocumentHandler())
	api.GET("/cases/:caseNumber/interview", interviewHandler())
	api.GET("/cases/:caseNumber/projections", projectionsHandler())
	api.GET("/cases/:caseNumber/resolution", resolutionHandler())
	api.GET("/cases/:caseNumber/tax-years", taxYearPickerHandler())
	api.GET("/cases/:caseNumber/tax-years/:id", getTaxYearHandler())
	api.GET("/cases/:caseNumber/tolling", tollingHandler())
	api.GET("/cases/:caseNumber/summary", summaryHandler())
	api.GET("/cases/:caseNumber/summary.xlsx", summaryExcelHandler())
	api.GET("/cases/:caseNumber/raw-documents", rawDocumentsHandler())
	api.GET("/cases/:caseNumber/extraction-failures", extractionFailuresHandler())
	api.POST("/cases/:caseNumber/documents/upload-url", documentUploadURLHandler())
	api.GET("/cases/:caseNumber/raw-documents/:id/archive", rawDocumentArchiveHandler())
	api.GET("/cases/:caseNumber/history", historyHandler())
	api.GET("/cases/:caseNumber/outbox", outboxStatusHandler())
	api.POST("/cases/:caseNumber/outbox/reprocess", outboxReprocessHandler())
	api.PATCH("/cases/:caseNumber/active", toggleCaseActiveHandler())

	api.PATCH("/income-documents/:id/exclusion", incomeDocumentExclusionHandler())

	// Lightweight cached pickers for UI dropdowns.
	api.GET("/pickers/cases", casePickerHandler())
	api.GET("/pickers/api-clients", apiClientPickerHandler())

	api.POST("/api-clients", createApiClientHandler())
	api.GET("/api-clients", listApiClientsHandler())
	api.GET("/api-clients/:id", getApiClientHandler())
	api.PATCH("/api-clients/:id/active", toggleApiClientActiveHandler())
	api.POST("/api-clients/:id/rotate-secret", rotateApiClientSecretHandler())

	api.POST("/sync", tiparser.TriggerSyncHandler())

	// Pub/Sub push delivery of outbox case events.
	r.POST("/pubsub", caseEventPushHandler())
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Background workers: outbox dispatcher (publishes AFTER commit) and the
	// upstream document sync.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go ensurePubSubResources(workerCtx, logger)
	go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)
	go tiparser.RunSyncWorker(workerCtx)

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("case backend listening on :", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelWorkers()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
// ensurePubSubResources creates the case-events topic and the push
// subscription at boot when PUBSUB_TOPIC is configured. Best effort: a
// deployment that manages these with terraform just logs and moves on.
func ensurePubSubResources(ctx context.Context, logger *logrus.Logger) {
	topicName := strings.TrimSpace(os.Getenv("PUBSUB_TOPIC"))
	if topicName == "" {
		return
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).
			Warn("pubsub client unavailable, skipping topic bootstrap: " + err.Error())
		return
	}

	topic, err := config.CreateTopicIfNotExists(client, topicName)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub", "topic": topicName}).
			Warn("topic bootstrap failed: " + err.Error())
		return
	}

	subName := strings.TrimSpace(os.Getenv("PUBSUB_SUBSCRIPTION"))
	if subName == "" {
		return
	}
	if _, err := config.CreateSubscriptionIfNotExists(client, subName, topic); err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub", "subscription": subName}).
			Warn("subscription bootstrap failed: " + err.Error())
	}
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
