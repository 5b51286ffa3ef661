package config

import (
	"flag"
	"os"
	"time"

	"backoffice/internal/backoffice"
	"backoffice/internal/backoffice/data/database"
	"backoffice/internal/backoffice/notify"

	"github.com/joho/godotenv"
)

const (
	serverAddressFlag      = "a"
	serverAddressEnv       = "RUN_ADDRESS"
	serverAddressDefault   = "localhost:8080"
	notifyAddressFlag      = "n"
	notifyAddressEnv       = "NOTIFY_SINK_ADDRESS"
	notifyAddressDefault   = "http://localhost:8081"
	dbConnectionStringFlag = "d"
	dbConnectionStringEnv  = "DATABASE_URI"
	dbConnectionDefault    = ""
	jwtSecretEnv           = "JWT_SECRET"
	jwtSecretDefault       = "secret"
)

type Config struct {
	Server          backoffice.Config
	JWTConfig       JWTConfig
	DB              database.Config
	Notify          notify.ClientConfig
	Dispatcher      notify.DispatcherConfig
	ShutdownTimeout time.Duration
}

type JWTConfig struct {
	Algorithm      string
	Secret         string
	ExpirationTime time.Duration
}

func Load() (*Config, error) {
	// a local .env is a convenience, not a requirement
	_ = godotenv.Load()

	serverAddress := flag.String(
		serverAddressFlag,
		serverAddressDefault,
		"Server address host:port",
	)

	notifyAddress := flag.String(
		notifyAddressFlag,
		notifyAddressDefault,
		"Notification sink base URL",
	)

	dbConnectionString := flag.String(
		dbConnectionStringFlag,
		dbConnectionDefault,
		"PostgreSQL connection string",
	)

	flag.Parse()

	if valStr, ok := os.LookupEnv(serverAddressEnv); ok {
		*serverAddress = valStr
	}

	if valStr, ok := os.LookupEnv(notifyAddressEnv); ok {
		*notifyAddress = valStr
	}

	if valStr, ok := os.LookupEnv(dbConnectionStringEnv); ok {
		*dbConnectionString = valStr
	}

	jwtSecret := jwtSecretDefault
	if valStr, ok := os.LookupEnv(jwtSecretEnv); ok {
		jwtSecret = valStr
	}

	return &Config{
		Server: backoffice.Config{
			ServerAddress:   *serverAddress,
			ShutdownTimeout: time.Second * 5,
		},
		JWTConfig: JWTConfig{
			Algorithm:      "HS256",
			Secret:         jwtSecret,
			ExpirationTime: time.Hour * 8,
		},
		DB: database.Config{
			ConnectionString: *dbConnectionString,
		},
		Notify: notify.ClientConfig{
			ServerAddress: *notifyAddress,
		},
		Dispatcher: notify.DispatcherConfig{
			WorkersCount:       2,
			EventsBufferLength: 128,
		},
		ShutdownTimeout: time.Second * 5,
	}, nil
}
