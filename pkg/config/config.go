package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del servicio (lectura vía Viper desde env y
// opcionalmente archivo). Se inyecta explícitamente en los constructores: las
// operaciones no leen configuración global en tiempo de llamada.
type Config struct {
	App       AppConfig
	DB        DBConfig
	HTTP      HTTPConfig
	B2BRouter B2BRouterConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si
// no el construido con los campos sueltos.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// B2BRouterConfig credenciales y parámetros de sincronización con B2BRouter.
type B2BRouterConfig struct {
	Production bool   // false = app-staging.b2brouter.net
	Account    string // identificador del proyecto/cuenta
	APIKey     string

	// DefaultService servicio facturae por defecto para facturas sin servicio
	// explícito ("" o "b2brouter"). Se valida contra el enum en el arranque.
	DefaultService string

	// SendAfterImport pide el envío inmediato en el propio import.
	SendAfterImport bool

	// StateUpdateDays ventana hacia atrás de la reconciliación (defecto 30).
	StateUpdateDays int
	// DateFrom / DateTo (YYYY-MM-DD) anulan la ventana calculada.
	DateFrom time.Time
	DateTo   time.Time

	// UpdateInterval intervalo del ticker de reconciliación del proceso API.
	// 0 = desactivado (se usa cmd/reconcile desde el cron del anfitrión).
	UpdateInterval time.Duration

	// WebhookToken secreto compartido para el webhook de notificaciones.
	// Vacío = sin verificación (compatible con el comportamiento original).
	WebhookToken string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// un archivo .env o config.env). Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	dateFrom, err := getDate(v, "B2BROUTER_DATE_FROM")
	if err != nil {
		return nil, err
	}
	dateTo, err := getDate(v, "B2BROUTER_DATE_TO")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "facturae-b2brouter"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "facturae_b2brouter"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		B2BRouter: B2BRouterConfig{
			Production:      getBool(v, "B2BROUTER_PRODUCTION", false),
			Account:         getString(v, "B2BROUTER_ACCOUNT", ""),
			APIKey:          getString(v, "B2BROUTER_API_KEY", ""),
			DefaultService:  getString(v, "FACTURAE_SERVICE", ""),
			SendAfterImport: getBool(v, "B2BROUTER_SEND_AFTER_IMPORT", false),
			StateUpdateDays: getInt(v, "B2BROUTER_STATE_UPDATE_DAYS", 30),
			DateFrom:        dateFrom,
			DateTo:          dateTo,
			UpdateInterval:  time.Duration(getInt(v, "B2BROUTER_UPDATE_INTERVAL_MIN", 0)) * time.Minute,
			WebhookToken:    getString(v, "B2BROUTER_WEBHOOK_TOKEN", ""),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

func getDate(v *viper.Viper, key string) (time.Time, error) {
	if !v.IsSet(key) || v.GetString(key) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v.GetString(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: fecha inválida %q (formato YYYY-MM-DD)", key, v.GetString(key))
	}
	return t, nil
}
