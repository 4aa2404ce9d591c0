package core

import (
	"log"
	"net"
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
		Debug             bool
		TestMode          bool
		Env               string
		Build             string
		AppName           string
		SecretKey         string
		RollbarToken      string
		SendgridApiKey    string
		FrontendBaseURL   string
		SignupEmailDomain string
		defaultFromEmail  string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

// NewConfig loads the configuration of the current ENV (DEV by default) from
// the environment, after loading config/.env.<env> if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Norse")
	v.SetDefault("secretKey", "k2#9x!v@qe7$f+0=z&mrw1l(c^8p)d4s*yuh5tgjb6an3o")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("signupEmailDomain", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "norse")
	v.SetDefault("database.user", "norse")
	v.SetDefault("database.password", "norse")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:             v.GetBool("debug"),
		TestMode:          v.GetBool("testMode"),
		Env:               env,
		Build:             v.GetString("build"),
		AppName:           v.GetString("appName"),
		SecretKey:         v.GetString("secretKey"),
		RollbarToken:      v.GetString("rollbarToken"),
		SendgridApiKey:    v.GetString("sendgridApiKey"),
		FrontendBaseURL:   v.GetString("frontendBaseURL"),
		SignupEmailDomain: CleanString(v.GetString("signupEmailDomain"), true /* lower */),
		defaultFromEmail:  v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
	}
}

// NewTestConfig returns a Config fit for unit tests: in-memory storage, no debug output.
func NewTestConfig() *Config {
	return &Config{
		TestMode:         true,
		Env:              "TEST",
		Build:            "test",
		AppName:          "Norse",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "noreply@localhost",
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: DatabaseConfig{Engine: "memory"},
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
