package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DevMode  bool   `env:"LOGGER_DEV_MODE" envDefault:"false"`
	Encoder  string `env:"LOGGER_ENCODER" envDefault:"console"`
	LogLevel string `env:"LOGGER_LEVEL" envDefault:"info"`
}

// Logger is the application logging contract, backed by zap.
type Logger interface {
	InitLogger()
	Logger() *zap.Logger
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	With(args ...interface{}) Logger
}

var loggerLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

type appLogger struct {
	cfg         *Config
	logger      *zap.Logger
	sugarLogger *zap.SugaredLogger
}

func NewAppLogger(cfg *Config) *appLogger {
	return &appLogger{cfg: cfg}
}

func (l *appLogger) getLoggerLevel() zapcore.Level {
	level, exist := loggerLevelMap[l.cfg.LogLevel]
	if !exist {
		return zapcore.InfoLevel
	}
	return level
}

func (l *appLogger) InitLogger() {
	logLevel := l.getLoggerLevel()
	logWriter := zapcore.AddSync(os.Stdout)

	var encoderCfg zapcore.EncoderConfig
	if l.cfg.DevMode {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.NameKey = "service"
	encoderCfg.TimeKey = "time"
	encoderCfg.LevelKey = "level"
	encoderCfg.CallerKey = "caller"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if l.cfg.Encoder == "json" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, logWriter, zap.NewAtomicLevelAt(logLevel))
	l.logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	l.sugarLogger = l.logger.Sugar()
}

func (l *appLogger) Logger() *zap.Logger {
	return l.logger
}

func (l *appLogger) Debug(args ...interface{}) { l.sugarLogger.Debug(args...) }
func (l *appLogger) Debugf(template string, args ...interface{}) {
	l.sugarLogger.Debugf(template, args...)
}
func (l *appLogger) Info(args ...interface{}) { l.sugarLogger.Info(args...) }
func (l *appLogger) Infof(template string, args ...interface{}) {
	l.sugarLogger.Infof(template, args...)
}
func (l *appLogger) Warn(args ...interface{}) { l.sugarLogger.Warn(args...) }
func (l *appLogger) Warnf(template string, args ...interface{}) {
	l.sugarLogger.Warnf(template, args...)
}
func (l *appLogger) Error(args ...interface{}) { l.sugarLogger.Error(args...) }
func (l *appLogger) Errorf(template string, args ...interface{}) {
	l.sugarLogger.Errorf(template, args...)
}
func (l *appLogger) Fatal(args ...interface{}) { l.sugarLogger.Fatal(args...) }
func (l *appLogger) Fatalf(template string, args ...interface{}) {
	l.sugarLogger.Fatalf(template, args...)
}

func (l *appLogger) With(args ...interface{}) Logger {
	clone := *l
	clone.sugarLogger = l.sugarLogger.With(args...)
	return &clone
}
