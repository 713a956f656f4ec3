package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		AppName  string

		SecretKey    []byte
		RollbarToken string

		// static role passwords; either plain text or bcrypt hashes ("$2..." prefix)
		PrincipalPassword string
		StaffPassword     string

		SendgridApiKey     string
		defaultFromEmail   string
		FrontendBaseURL    string
		SyncPollInterval   time.Duration
		MergePartnerPolicy string // "first-other" (default)

		Server   ServerConfig
		Store    StoreConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host               string
		Addr               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	// StoreConfig selects the storage engine backing the repositories.
	StoreConfig struct {
		Engine          string // "postgres" | "redis" | "memory"
		OfflineFallback bool   // fall back to the in-memory engine if the primary is unreachable
		Timeout         time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}
)

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("secretKey", "y0w)1+f0rg0t-t0_s3t/the#s3cret@key!!")
	conf.SetDefault("principalPassword", "principal")
	conf.SetDefault("staffPassword", "staff")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("syncPollInterval", 3*time.Second)
	conf.SetDefault("mergePartnerPolicy", "first-other")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.debugHost", "localhost:8001")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("store.engine", "postgres")
	conf.SetDefault("store.offlineFallback", true)
	conf.SetDefault("store.timeout", 5*time.Second)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.name", "darasa")
	conf.SetDefault("database.user", "darasa")
	conf.SetDefault("database.password", "darasa")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("redis.addr", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:              conf.GetBool("debug"),
		TestMode:           env == "TEST",
		Env:                env,
		Build:              conf.GetString("build"),
		AppName:            conf.GetString("appName"),
		SecretKey:          []byte(conf.GetString("secretKey")),
		RollbarToken:       conf.GetString("rollbarToken"),
		PrincipalPassword:  conf.GetString("principalPassword"),
		StaffPassword:      conf.GetString("staffPassword"),
		SendgridApiKey:     conf.GetString("sendgridApiKey"),
		defaultFromEmail:   conf.GetString("defaultFromEmail"),
		FrontendBaseURL:    conf.GetString("frontendBaseURL"),
		SyncPollInterval:   conf.GetDuration("syncPollInterval"),
		MergePartnerPolicy: conf.GetString("mergePartnerPolicy"),
		Server: ServerConfig{
			Host:               conf.GetString("server.host"),
			Addr:               conf.GetString("server.addr"),
			DebugHost:          conf.GetString("server.debugHost"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Store: StoreConfig{
			Engine:          conf.GetString("store.engine"),
			OfflineFallback: conf.GetBool("store.offlineFallback"),
			Timeout:         conf.GetDuration("store.timeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redis.addr"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
		},
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
