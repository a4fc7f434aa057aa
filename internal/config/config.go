package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Josue049/CronoSpark/internal/logger"
	"github.com/Josue049/CronoSpark/internal/rabbit"
	"github.com/Josue049/CronoSpark/internal/scheduler"
	internalhttp "github.com/Josue049/CronoSpark/internal/server/http"
	"github.com/Josue049/CronoSpark/internal/storagebuilder"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// A value of the form "$env:NAME" or "$env:NAME:default" is taken from the environment.
const envConfigPrefix = "$env:"

type Config struct {
	HTTPServer internalhttp.Config
	Logger     logger.Config
	Storage    storagebuilder.Config
	Scheduler  scheduler.Config
	Rabbit     rabbit.Config
}

// Lookup finds an environment variable, like os.LookupEnv.
type Lookup func(name string) (string, bool)

// Chain returns the first value found, so earlier lookups take precedence.
func Chain(lookups ...Lookup) Lookup {
	return func(name string) (string, bool) {
		for _, lookup := range lookups {
			if value, ok := lookup(name); ok {
				return value, true
			}
		}
		return "", false
	}
}

type Options struct {
	// ConfigFile is an optional YAML (or any viper supported format) file.
	ConfigFile string
	// EnvDir is an optional directory with one file per variable.
	EnvDir string
	// DotEnv is an optional .env file. A missing file is ignored.
	DotEnv string
	// Environ defaults to the process environment.
	Environ Lookup
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("httpServer.host", "0.0.0.0")
	v.SetDefault("httpServer.port", "$env:PORT:5000")
	v.SetDefault("httpServer.secretKey", "$env:SECRET_KEY:dev-secret-key")
	v.SetDefault("httpServer.writeRateLimit", 10)
	v.SetDefault("httpServer.writeBurst", 20)
	v.SetDefault("httpServer.shutdownTimeout", "3s")

	v.SetDefault("logger.level", "$env:LOG_LEVEL:info")
	v.SetDefault("logger.format", "text")

	v.SetDefault("storage.databaseURL", "$env:DATABASE_URL:")
	v.SetDefault("storage.sqlitePath", storagebuilder.DefaultSQLitePath)
	v.SetDefault("storage.connectTimeout", "15s")
	v.SetDefault("storage.maxOpenConns", 2)
	v.SetDefault("storage.maxIdleConns", 2)
	v.SetDefault("storage.connMaxLifetime", "30m")

	v.SetDefault("scheduler.interval", "1m")
	v.SetDefault("scheduler.cleanupInterval", "5m")
	v.SetDefault("scheduler.remindBefore", "1h")
	v.SetDefault("scheduler.retention", "8760h")
	v.SetDefault("scheduler.timezone", "UTC")

	// Empty disables reminders.
	v.SetDefault("rabbit.url", "$env:RABBITMQ_URL:")
	v.SetDefault("rabbit.queue", "cronospark.reminders")
}

// Load builds the configuration. Environment sources are consulted in order:
// process environment, env directory, .env file.
func Load(opts Options) (Config, error) {
	config := Config{}
	lookup, err := opts.lookup()
	if err != nil {
		return config, err
	}

	v := viper.New()
	setDefaults(v)
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("failed to read config %q: %w", opts.ConfigFile, err)
		}
	}

	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if !strings.HasPrefix(value, envConfigPrefix) {
			continue
		}
		name, fallback, _ := strings.Cut(value[len(envConfigPrefix):], ":")
		if env, ok := lookup(name); ok {
			fallback = env
		}
		v.Set(key, fallback)
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}

func (o Options) lookup() (Lookup, error) {
	environ := o.Environ
	if environ == nil {
		environ = os.LookupEnv
	}
	lookups := []Lookup{environ}

	if o.EnvDir != "" {
		env, err := ReadEnvDir(o.EnvDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read env dir %q: %w", o.EnvDir, err)
		}
		lookups = append(lookups, env.Lookup)
	}

	if o.DotEnv != "" {
		values, err := godotenv.Read(o.DotEnv)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read env file %q: %w", o.DotEnv, err)
		default:
			lookups = append(lookups, func(name string) (string, bool) {
				value, ok := values[name]
				return value, ok
			})
		}
	}
	return Chain(lookups...), nil
}
