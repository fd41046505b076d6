package database

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	DBName          string
	Password        string
	MaxConn         int
	MaxIdleConn     int
	ConnMaxLifetime int
	LogLevel        string
	SSLMode         string
}

func InitDatabase(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	db, err := NewConnection(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	return db, nil
}

func NewConnection(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	validateConfig(dbConfig)

	portInt, err := strconv.Atoi(dbConfig.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port number: %w", err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host, portInt, dbConfig.User, dbConfig.Password, dbConfig.DBName, dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel(dbConfig.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	maxIdle := dbConfig.MaxIdleConn
	if maxIdle <= 0 {
		maxIdle = 10
	}
	maxOpen := dbConfig.MaxConn
	if maxOpen <= 0 {
		maxOpen = 100
	}
	lifetime := time.Duration(dbConfig.ConnMaxLifetime) * time.Minute
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	return db, nil
}

func logLevel(level string) gormlogger.LogLevel {
	switch level {
	case "INFO":
		return gormlogger.Info
	case "ERROR":
		return gormlogger.Error
	case "SILENT":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}

func validateConfig(config *DatabaseConfig) {
	switch {
	case config == nil:
		log.Fatalf("Database config is nil")
	case config.Host == "":
		log.Fatalf("Database host config is empty")
	case config.Port == "":
		log.Fatalf("Database port config is empty")
	case config.User == "":
		log.Fatalf("Database user config is empty")
	case config.Password == "":
		log.Fatalf("Database password config is empty")
	case config.DBName == "":
		log.Fatalf("Database name config is empty")
	case config.SSLMode == "":
		log.Fatalf("Database SSLMode config is empty")
	}
}
