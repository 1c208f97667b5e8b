package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"evidence-custody-go/internal/custody"
	"evidence-custody-go/internal/handlers"
	ledgerpkg "evidence-custody-go/internal/ledger"
	"evidence-custody-go/internal/metrics"
	"evidence-custody-go/internal/models"
	"evidence-custody-go/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	// Redis Configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	// Initialize Redis store (local evidence cache + event feed)
	cache := store.NewRedisStore(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// PostgreSQL Configuration
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Initialize PostgreSQL store (audit trail, roles, subscriptions)
	pgStore, err := store.NewPostgresStore(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	ctx := context.Background()
	if err := pgStore.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Remote ledger and content store; in-process fallbacks when no
	// gateway is configured.
	var l ledgerpkg.Ledger
	var content ledgerpkg.ContentStore
	if ledgerURL := os.Getenv("LEDGER_URL"); ledgerURL != "" {
		l = ledgerpkg.NewHTTPLedger(ledgerURL, os.Getenv("LEDGER_TOKEN"))
	} else {
		log.Println("LEDGER_URL not set, using in-process ledger")
		l = ledgerpkg.NewMemoryLedger()
	}
	if contentURL := os.Getenv("CONTENT_UPLOAD_URL"); contentURL != "" {
		content = ledgerpkg.NewHTTPContentStore(contentURL, os.Getenv("CONTENT_TOKEN"))
	} else {
		log.Println("CONTENT_UPLOAD_URL not set, using in-process content store")
		content = ledgerpkg.NewMemoryContentStore()
	}

	gatewayBase := os.Getenv("CONTENT_GATEWAY_URL")
	if gatewayBase == "" {
		gatewayBase = "https://gateway.pinata.cloud/ipfs"
	}

	roleSecrets, err := loadRoleSecrets()
	if err != nil {
		log.Fatalf("Failed to prepare role secrets: %v", err)
	}

	h := handlers.NewHandler(cache, pgStore, l, content, roleSecrets, gatewayBase)

	// Session and identity
	http.HandleFunc("/api/login", h.LoginHandler)
	http.HandleFunc("/api/logout", h.LogoutHandler)

	// Evidence
	http.HandleFunc("/api/evidence", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.Authed(h.ListEvidenceHandler)(w, r)
		case http.MethodPost:
			h.Require(custody.CapUpload, h.UploadHandler)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	http.HandleFunc("/api/evidence/transfer", h.Require(custody.CapTransfer, h.TransferHandler))
	http.HandleFunc("/api/evidence/reconcile", handlers.Authed(h.ReconcileHandler))
	http.HandleFunc("/api/evidence/timeline", handlers.Authed(h.TimelineHandler))

	// Integrity verification
	http.HandleFunc("/api/verify", h.Require(custody.CapVerify, h.VerifyHandler))
	http.HandleFunc("/api/verify/remote", h.Require(custody.CapVerify, h.VerifyRemoteHandler))

	// Certificates, audit trail, reports
	http.HandleFunc("/api/certificate", handlers.Authed(h.CertificateHandler))
	http.HandleFunc("/api/audit", h.Require(custody.CapViewAudit, h.GetAuditHandler))
	http.HandleFunc("/api/report", h.Require(custody.CapViewAudit, h.ReportHandler))

	// Backup and restore of the local cache
	http.HandleFunc("/api/backup", handlers.Authed(h.BackupHandler))
	http.HandleFunc("/api/restore", handlers.Authed(h.RestoreHandler))

	// User administration
	http.HandleFunc("/api/admin/users", h.Require(custody.CapUserAdmin, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetUsersHandler(w, r)
		case http.MethodPost:
			h.CreateUserHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Step-up auth enrollment
	http.HandleFunc("/api/totp/enroll", handlers.Authed(h.EnrollTOTPHandler))
	http.HandleFunc("/api/totp/confirm", handlers.Authed(h.ConfirmTOTPHandler))

	// Push notifications and the live event stream
	http.HandleFunc("/api/push/key", h.GetVAPIDKeyHandler)
	http.HandleFunc("/api/push/subscribe", handlers.Authed(h.SubscribePushHandler))
	http.HandleFunc("/events", h.SSEHandler)

	http.Handle("/metrics", metrics.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on :" + port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

// loadRoleSecrets hashes the configured role secrets once at startup.
func loadRoleSecrets() (map[string]string, error) {
	defaults := map[string]string{
		models.RoleInvestigator: "investigator123",
		models.RoleAdmin:        "admin123",
		models.RoleAuditor:      "auditor123",
	}
	envKeys := map[string]string{
		models.RoleInvestigator: "ROLE_SECRET_INVESTIGATOR",
		models.RoleAdmin:        "ROLE_SECRET_ADMIN",
		models.RoleAuditor:      "ROLE_SECRET_AUDITOR",
	}

	secrets := make(map[string]string, len(defaults))
	for role, fallback := range defaults {
		secret := os.Getenv(envKeys[role])
		if secret == "" {
			secret = fallback
		}
		hash, err := models.HashSecret(secret)
		if err != nil {
			return nil, err
		}
		secrets[role] = hash
	}
	return secrets, nil
}
