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

type (
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Portal       PortalConfig
		Chat         ChatConfig
		Prefs        PrefsConfig
		Session      SessionConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		DisableReqLogs            bool
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	PortalConfig struct {
		BaseURL   string
		Timeout   time.Duration
		RateLimit float64 // requests per second
		Burst     int
		Offline   bool // only demo logins are accepted
	}

	ChatConfig struct {
		BaseURL string
		Timeout time.Duration
		Demo    bool
	}

	PrefsConfig struct {
		Path string // empty: in-memory preferences
	}

	SessionConfig struct {
		TTL time.Duration
	}
)

// NewConfig reads the configuration from the environment.
// Variables are prefixed with the environment name: DEV_PORTAL.BASEURL, PROD_SECRETKEY...
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "CampusCompanion")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "t9x#4m!qv2@lr7&hz0$k8wdp3^ne6+yc1(uj5)b-fs_ga")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("portal.baseURL", "https://webportal.jiit.ac.in:6011/StudentPortalAPI")
	v.SetDefault("portal.timeout", 20*time.Second)
	v.SetDefault("portal.rateLimit", 5.0)
	v.SetDefault("portal.burst", 10)
	v.SetDefault("portal.offline", false)
	v.SetDefault("chat.baseURL", "http://127.0.0.1:5000")
	v.SetDefault("chat.timeout", 30*time.Second)
	v.SetDefault("chat.demo", false)
	v.SetDefault("prefs.path", "")
	v.SetDefault("session.ttl", 12*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if root, ok := projectRoot(); ok {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Portal: PortalConfig{
			BaseURL:   strings.TrimRight(v.GetString("portal.baseURL"), "/"),
			Timeout:   v.GetDuration("portal.timeout"),
			RateLimit: v.GetFloat64("portal.rateLimit"),
			Burst:     v.GetInt("portal.burst"),
			Offline:   v.GetBool("portal.offline"),
		},
		Chat: ChatConfig{
			BaseURL: strings.TrimRight(v.GetString("chat.baseURL"), "/"),
			Timeout: v.GetDuration("chat.timeout"),
			Demo:    v.GetBool("chat.demo"),
		},
		Prefs: PrefsConfig{
			Path: v.GetString("prefs.path"),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("session.ttl"),
		},
	}
}

// projectRoot walks up from the working directory looking for go.mod.
// go-test runs in the package directory, so the dotenv files cannot be resolved from the cwd alone.
func projectRoot() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir, true
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return "", false
		}
		currDir = newDir
	}
}
