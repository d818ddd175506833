package dbconfig

import (
	"fmt"
	"net/url"
)

// Config holds Postgres connection settings. It is parsed from DB_* variables as
// part of the server config.
type Config struct {
	Enabled  bool   `env:"DB_ENABLED"   envDefault:"false"`
	Host     string `env:"DB_HOST"      envDefault:"localhost"`
	Port     int    `env:"DB_PORT"      envDefault:"5432"`
	User     string `env:"DB_USER"      envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"  envDefault:"postgres"`
	Database string `env:"DB_NAME"      envDefault:"trivia"`
	SSLMode  string `env:"DB_SSLMODE"   envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

// DSN returns the Postgres connection URL.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}
