package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env          string
	Build        string
	AppName      string
	Debug        bool
	TestMode     bool
	RollbarToken string

	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Session struct {
		StorePath string
		HashKey   string
		BlockKey  string
	}

	Notifications struct {
		PollInterval time.Duration
	}

	DevServer struct {
		Addr               string
		SecretKey          string
		JWTExpirationDelta time.Duration
		UploadDir          string
		ShutdownTimeout    time.Duration
	}
}

// NewConfig loads the configuration from the environment, optionally seeded by `config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "FYP Desk")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("api.baseURL", "http://localhost:3301/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("session.storePath", defaultStorePath())
	v.SetDefault("session.hashKey", "fypdesk-session-hash-key-change-me-please-0123456789")
	v.SetDefault("session.blockKey", "")
	v.SetDefault("notifications.pollInterval", 30*time.Second)
	v.SetDefault("devServer.addr", ":3301")
	v.SetDefault("devServer.secretKey", "q8#n2!vfyp)desk$+dev=secret&0x7(h!x)#*c2(#yg4h^$")
	v.SetDefault("devServer.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("devServer.uploadDir", "uploads")
	v.SetDefault("devServer.shutdownTimeout", 5*time.Second)

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

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.API.BaseURL = strings.TrimRight(v.GetString("api.baseURL"), "/")
	conf.API.Timeout = v.GetDuration("api.timeout")
	conf.Session.StorePath = v.GetString("session.storePath")
	conf.Session.HashKey = v.GetString("session.hashKey")
	conf.Session.BlockKey = v.GetString("session.blockKey")
	conf.Notifications.PollInterval = v.GetDuration("notifications.pollInterval")
	conf.DevServer.Addr = v.GetString("devServer.addr")
	conf.DevServer.SecretKey = v.GetString("devServer.secretKey")
	conf.DevServer.JWTExpirationDelta = v.GetDuration("devServer.jwtExpirationDelta")
	conf.DevServer.UploadDir = v.GetString("devServer.uploadDir")
	conf.DevServer.ShutdownTimeout = v.GetDuration("devServer.shutdownTimeout")
	return conf
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fypdesk", "session")
	}
	return filepath.Join(home, ".fypdesk", "session")
}
