package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/tracing"
)

type Config struct {
	AppConfig         *AppConfig
	Logger            *logger.Config
	Tracing           *tracing.JaegerConfig
	DatabaseConfig    *DatabaseConfig
	SMTPServerConfig  *SMTPServerConfig
	SMTPOutConfig     *SMTPOutConfig
	AnalysisAPIConfig *AnalysisAPIConfig
	S3StorageConfig   *S3StorageConfig
	CronConfig        *CronConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:         &AppConfig{},
		Logger:            &logger.Config{},
		Tracing:           &tracing.JaegerConfig{},
		DatabaseConfig:    &DatabaseConfig{},
		SMTPServerConfig:  &SMTPServerConfig{},
		SMTPOutConfig:     &SMTPOutConfig{},
		AnalysisAPIConfig: &AnalysisAPIConfig{},
		S3StorageConfig:   &S3StorageConfig{},
		CronConfig:        &CronConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading receiptstack config: %v", err)
	}

	return config, nil
}
