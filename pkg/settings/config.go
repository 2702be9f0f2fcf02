// Package settings holds the configuration structs consumed by the backend
// connection factories. Tags follow the mapstructure convention so callers
// can unmarshal from any config source.
package settings

import "fmt"

type Config struct {
	MongoDB  MongoDB  `mapstructure:"mongodb"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
}

// MongoDB is the configuration for the document backend.
type MongoDB struct {
	Host            string `mapstructure:"host" validate:"required"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxPoolSize     uint64 `mapstructure:"max_pool_size"`
	MinPoolSize     uint64 `mapstructure:"min_pool_size"`
	MaxConnIdleTime uint64 `mapstructure:"max_conn_idle_time"`
	Port            int    `mapstructure:"port"`
	Timeout         int    `mapstructure:"timeout"` // Seconds
}

// URI renders the connection string.
func (m *MongoDB) URI() string {
	port := m.Port
	if port == 0 {
		port = 27017
	}
	if m.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", m.Username, m.Password, m.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", m.Host, port)
}

// Database is the configuration for the relational backend.
type Database struct {
	Driver          string `mapstructure:"driver" validate:"required,oneof=postgres mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Seconds
	Debug           bool   `mapstructure:"debug"`
}

// Logger is the configuration for the logger.
type Logger struct {
	LogLevel    string `mapstructure:"log_level"`
	FileLogName string `mapstructure:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxSize     int    `mapstructure:"max_size"`
	Compress    bool   `mapstructure:"compress"`
}
