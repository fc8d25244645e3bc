package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config es toda la configuración del proceso. Se lee de (mayor a menor
// prioridad): flags, variables de entorno, archivo .env, defaults.
type Config struct {
	Port int

	// RepoType: file-only | networked-only | composite (o json | db | db_json)
	RepoType string
	DataPath string

	DBDSN            string
	DBCollection     string
	DBConnectTimeout time.Duration
	DBConnectRetries uint64

	LogLevel  string
	LogFormat string
	AppName   string
}

const (
	KeyPort             = "PORT"
	KeyRepoType         = "REPO_TYPE"
	KeyDataPath         = "DATA_PATH"
	KeyDBDSN            = "DB_DSN"
	KeyDBCollection     = "DB_COLLECTION"
	KeyDBConnectTimeout = "DB_CONNECT_TIMEOUT"
	KeyDBConnectRetries = "DB_CONNECT_RETRIES"
	KeyLogLevel         = "LOG_LEVEL"
	KeyLogFormat        = "LOG_FORMAT"
	KeyAppName          = "APP_NAME"
)

// flag => key
var flagKeys = map[string]string{
	"port":          KeyPort,
	"repo-type":     KeyRepoType,
	"data-path":     KeyDataPath,
	"db-dsn":        KeyDBDSN,
	"db-collection": KeyDBCollection,
	"log-level":     KeyLogLevel,
	"log-format":    KeyLogFormat,
}

func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyPort, 3000)
	v.SetDefault(KeyRepoType, "file-only")
	v.SetDefault(KeyDataPath, "data/pets.json")
	v.SetDefault(KeyDBDSN, "")
	v.SetDefault(KeyDBCollection, "pets")
	v.SetDefault(KeyDBConnectTimeout, 5*time.Second)
	v.SetDefault(KeyDBConnectRetries, 2)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyAppName, "pet-registry")

	v.AutomaticEnv()
	return v
}

// RegisterFlags declara los flags del comando. Vacío/0 => no pisan nada.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 0, "HTTP port (env PORT)")
	fs.String("repo-type", "", "file-only | networked-only | composite (env REPO_TYPE)")
	fs.String("data-path", "", "path of the JSON pets file (env DATA_PATH)")
	fs.String("db-dsn", "", "Postgres DSN (env DB_DSN)")
	fs.String("db-collection", "", "document collection/table name (env DB_COLLECTION)")
	fs.String("log-level", "", "debug | info | warn | error (env LOG_LEVEL)")
	fs.String("log-format", "", "text | json (env LOG_FORMAT)")
}

// Load arma la Config. envFile es opcional (".env"); si no existe se ignora.
func Load(v *viper.Viper, flags *pflag.FlagSet, envFile string) (Config, error) {
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			if key, ok := flagKeys[f.Name]; ok {
				v.Set(key, f.Value.String())
			}
		})
	}

	cfg := Config{
		Port:             v.GetInt(KeyPort),
		RepoType:         strings.TrimSpace(v.GetString(KeyRepoType)),
		DataPath:         strings.TrimSpace(v.GetString(KeyDataPath)),
		DBDSN:            strings.TrimSpace(v.GetString(KeyDBDSN)),
		DBCollection:     strings.TrimSpace(v.GetString(KeyDBCollection)),
		DBConnectTimeout: v.GetDuration(KeyDBConnectTimeout),
		DBConnectRetries: v.GetUint64(KeyDBConnectRetries),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
		AppName:          v.GetString(KeyAppName),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid %s: %d", KeyPort, cfg.Port)
	}
	return cfg, nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
