package datastore

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/conf"
	"github.com/tphakala/imagecurator/internal/logger"
)

// MySQLConfig configures a MySQL backed store.
type MySQLConfig struct {
	// DSN is a go-sql-driver/mysql data source name. parseTime must be set.
	DSN string
	// Location is a display form of the target, without credentials.
	Location      string
	SlowThreshold time.Duration
	Debug         bool
}

// MySQLConfigFromSettings builds the manager configuration from settings.
func MySQLConfigFromSettings(s *conf.DatabaseSettings) MySQLConfig {
	return MySQLConfig{
		DSN:           MySQLDSN(&s.MySQL),
		Location:      fmt.Sprintf("%s:%d/%s", s.MySQL.Host, s.MySQL.Port, s.MySQL.Database),
		SlowThreshold: s.SlowQueryThreshold,
		Debug:         s.Debug,
	}
}

// MySQLDSN formats the driver DSN: utf8mb4, parsed times in local time.
func MySQLDSN(s *conf.MySQLSettings) string {
	cfg := mysqldriver.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	cfg.DBName = s.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// MySQLManager handles the catalog stored in a MySQL database.
type MySQLManager struct {
	*gormManager
}

// NewMySQLManager creates a MySQL manager. Nothing is opened until Connect.
func NewMySQLManager(cfg MySQLConfig, log logger.Logger, m *Metrics) *MySQLManager {
	g := newGormManager(DialectMySQL, cfg.Location, log, m)
	g.slowThreshold = cfg.SlowThreshold
	g.debug = cfg.Debug
	g.open = func() gorm.Dialector {
		return mysql.Open(cfg.DSN)
	}
	g.configurePool = func(db *sql.DB) {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(100)
		db.SetConnMaxLifetime(time.Hour)
	}
	return &MySQLManager{gormManager: g}
}
