package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type DatabaseConfig struct {
	Driver          string
	User            string
	Password        string
	Host            string
	Port            string
	Name            string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLDSN builds the go-sql-driver DSN. A host of the form
// "/cloudsql/<CONNECTION_NAME>" is dialed over a unix socket.
func (c DatabaseConfig) MySQLDSN() string {
	mc := gomysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.MultiStatements = true
	if strings.HasPrefix(c.Host, "/cloudsql/") {
		mc.Net = "unix"
		mc.Addr = c.Host
	} else {
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, c.Port)
	}
	return mc.FormatDSN()
}

func (c DatabaseConfig) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverMySQL:
		return mysql.Open(c.MySQLDSN()), nil
	case DriverSQLite, "":
		return sqlite.Open(c.Path), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
}

// OpenDatabase opens the store handle. The caller owns it and must
// release it with CloseDatabase.
func OpenDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, initConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite || cfg.Driver == "" {
		// one shared connection; sqlite serializes writers anyway and
		// ":memory:" databases live and die with their connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns >= 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	return db, nil
}

// ConnectDatabaseWithRetry keeps calling OpenDatabase with exponential
// backoff (capped at 30s) until it succeeds or ctx is done.
func ConnectDatabaseWithRetry(ctx context.Context, cfg DatabaseConfig, logg *logrus.Logger) (*gorm.DB, error) {
	var attempt int
	for {
		attempt++
		db, err := OpenDatabase(cfg)
		if err == nil {
			logg.WithFields(logrus.Fields{"driver": cfg.Driver, "attempt": attempt}).Info("connected to database")
			return db, nil
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logg.WithFields(logrus.Fields{"driver": cfg.Driver, "attempt": attempt}).
			Warn("failed to connect database; retrying in " + sleep.String() + ": " + err.Error())
		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), err)
		case <-time.After(sleep):
		}
	}
}

func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitConfig Initialize Config
func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

// InitLog Connection Log Configuration
func initLog() logger.Interface {
	level := logger.Error
	if strings.EqualFold(os.Getenv("GORM_LOG_LEVEL"), "info") {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  level,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// InitNamingStrategy Init NamingStrategy
func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
