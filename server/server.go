package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crisislink/crisislink/server/audit"
	"github.com/crisislink/crisislink/server/auth"
	"github.com/crisislink/crisislink/server/auth/key"
	"github.com/crisislink/crisislink/server/disclosure"
	"github.com/crisislink/crisislink/server/logger"
	"github.com/crisislink/crisislink/server/models"
	"github.com/crisislink/crisislink/server/notifier"
	"github.com/crisislink/crisislink/server/twilio"
	"github.com/crisislink/crisislink/server/work"
	"github.com/crisislink/crisislink/shared"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
)

const ACCESS_SESSION_TTL = 30 * time.Minute

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.CrisisLinkTokenClaims
	ErrorMsg string
}

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	serverConfig    shared.ServerConfig
	authKeyPair     *key.KeyPair
	workerPool      *work.WorkerPoolAdapter
	sessionRegistry *disclosure.Registry
	appDataDir      string
)

// Start boots the crisislink server: storage, auth keys, the worker pool
// that runs audit & notification jobs, the access-session registry, and
// the HTTP listener.
func Start(config *viper.Viper, devMode bool) {
	err := config.Unmarshal(&serverConfig)
	fatalOnError(err)

	err = RegisterValidators(validate)
	fatalOnError(err)

	err = validate.Struct(serverConfig)
	fatalOnError(err)

	appDataDir = dataDirectory(devMode)

	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.CrisisLink.PrivateKeyPem)
	fatalOnError(err)

	if backupEnabled() {
		err = restoreDbFromBackup()
		fatalOnError(err)
	}

	err = models.AutoMigrate(serverConfig.Sqlite.PassPhrase, appDataDir)
	fatalOnError(err)

	workerPool = work.NewWorkerAdapter(serverConfig.CrisisLink.Cron.TimeZone)

	smsClient := twilio.NewClient(serverConfig.Twilio, devMode || serverConfig.Twilio.AccountSid == "")
	accessEmitter, err := audit.NewEmitter(workerPool, notifier.New(smsClient))
	fatalOnError(err)

	sessionRegistry = disclosure.NewRegistry(accessEmitter, ACCESS_SESSION_TTL)

	registerJobHandlers(workerPool)
	enqueueJobs(workerPool)
	workerPool.Start()

	server := &http.Server{
		Handler: newRouter(),
		Addr:    fmt.Sprintf(":%v", serverConfig.CrisisLink.Listener.Port),
	}

	go serve(server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	cleanup(workerPool, server, backupEnabled())
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(initialContextMiddleware)

	router.HandleFunc("/signup", createUser).Methods("POST")
	router.HandleFunc("/login", logIn).Methods("POST")
	router.HandleFunc("/jwks", jwks).Methods("GET")

	router.HandleFunc("/reference/search", searchReference).Methods("GET")

	// The emergency surface is deliberately unauthenticated - a stranger
	// with a scanned QR code must be able to reach it.
	router.HandleFunc("/emergency/{username}", emergencyProfile).Methods("GET")
	router.HandleFunc("/emergency/{username}/claim", claimEmergencyAccess).Methods("POST")

	protected := router.PathPrefix("/users/{uid:[0-9]+}").Subrouter()
	protected.Use(protectedRouteMiddleware)
	protected.HandleFunc("/account", updateAccount).Methods("PUT")
	protected.HandleFunc("/account", deleteAccount).Methods("DELETE")
	protected.HandleFunc("/profile", findProfile).Methods("GET")
	protected.HandleFunc("/profile", createProfile).Methods("POST")
	protected.HandleFunc("/profile", updateProfile).Methods("PUT")
	protected.HandleFunc("/profile/validate", validateProfileStep).Methods("POST")
	protected.HandleFunc("/profile/preview", previewProfile).Methods("GET")
	protected.HandleFunc("/profile/qr", profileQRCode).Methods("GET")
	protected.HandleFunc("/dashboard", dashboard).Methods("GET")
	protected.HandleFunc("/contacts/{id:[0-9]+}", deleteContact).Methods("DELETE")

	return router
}
