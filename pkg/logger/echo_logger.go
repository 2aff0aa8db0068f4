package logger

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

// NewEchoRequestLogger returns an echo request logger middleware that writes through zap.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	config := middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health" || c.Request().URL.Path == "/metrics"
		},
		HandleError: true,

		LogLatency:       true,
		LogProtocol:      true,
		LogRemoteIP:      true,
		LogHost:          true,
		LogMethod:        true,
		LogURI:           true,
		LogURIPath:       true,
		LogRoutePath:     true,
		LogRequestID:     true,
		LogReferer:       true,
		LogUserAgent:     true,
		LogStatus:        true,
		LogError:         true,
		LogContentLength: true,
		LogResponseSize:  true,

		LogHeaders:     []string{"Content-Type", "Accept", "Authorization", "X-Cache-Status"},
		LogQueryParams: []string{"endpoint", "redirectedFrom"},

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.host", v.Host),
				zap.String("request.protocol", v.Protocol),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.path", v.URIPath),
				zap.String("request.route", v.RoutePath),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.referer", v.Referer),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.String("request.request_id", v.RequestID),
				zap.Int64("response.response_size", v.ResponseSize),
				zap.String("request.content_length", v.ContentLength),
			}

			if len(v.Headers) > 0 {
				headers := make(map[string]string)
				for k, values := range v.Headers {
					if len(values) == 0 {
						continue
					}
					if k == "Authorization" {
						val := values[0]
						if len(val) > 15 {
							headers[k] = val[:10] + "..." + val[len(val)-5:]
						} else {
							headers[k] = "[MASKED]"
						}
						continue
					}
					headers[k] = values[0]
				}
				fields = append(fields, zap.Any("request.headers", headers))
			}

			if cacheStatus := c.Response().Header().Get("X-Cache-Status"); cacheStatus != "" {
				fields = append(fields, zap.String("response.cache_status", cacheStatus))
			}

			if len(v.QueryParams) > 0 {
				fields = append(fields, zap.Any("request.query_params", v.QueryParams))
			}

			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Error("Request failed", fields...)
				return nil
			}

			if v.Status >= 400 && v.Status < 500 {
				logger.Warn("Client error", fields...)
				return nil
			}

			if v.Status >= 500 {
				logger.Error("Server error", fields...)
				return nil
			}

			logger.Info("Request completed", fields...)
			return nil
		},
	}

	return middleware.RequestLoggerWithConfig(config)
}

// WithEchoLogger installs the zap-backed echo logger and a JSON error handler
// that renders every failure as {"error": message}.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he := apperrors.ToHTTPError(err)

		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		} else if he.Message != nil {
			message = fmt.Sprint(he.Message)
		}

		fields := []zap.Field{
			zap.Error(err),
			zap.Int("status", he.Code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("ip", c.RealIP()),
		}
		if he.Code >= http.StatusInternalServerError {
			logger.Error("HTTP error", fields...)
		} else {
			logger.Debug("HTTP error", fields...)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, map[string]string{"error": message})
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger adapts zap to the echo.Logger interface.
type EchoZapLogger struct {
	Logger *zap.Logger
}

// NewEchoZapLogger wraps logger as an echo.Logger.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{Logger: logger}
}

func (l *EchoZapLogger) Output() io.Writer {
	return &zapWriter{logger: l.Logger}
}

// SetOutput is a no-op; zap owns its sinks.
func (l *EchoZapLogger) SetOutput(w io.Writer) {}

func (l *EchoZapLogger) Level() log.Lvl {
	return log.INFO
}

func (l *EchoZapLogger) SetLevel(v log.Lvl) {}

func (l *EchoZapLogger) SetHeader(h string) {}

func (l *EchoZapLogger) Prefix() string {
	return ""
}

func (l *EchoZapLogger) SetPrefix(p string) {}

func (l *EchoZapLogger) Print(i ...interface{}) {
	l.Logger.Sugar().Info(i...)
}

func (l *EchoZapLogger) Printf(format string, i ...interface{}) {
	l.Logger.Sugar().Infof(format, i...)
}

func (l *EchoZapLogger) Printj(j log.JSON) {
	l.Logger.Info("json_message", zap.Any("json", j))
}

func (l *EchoZapLogger) Debug(i ...interface{}) {
	l.Logger.Sugar().Debug(i...)
}

func (l *EchoZapLogger) Debugf(format string, i ...interface{}) {
	l.Logger.Sugar().Debugf(format, i...)
}

func (l *EchoZapLogger) Debugj(j log.JSON) {
	l.Logger.Debug("json_message", zap.Any("json", j))
}

func (l *EchoZapLogger) Info(i ...interface{}) {
	l.Logger.Sugar().Info(i...)
}

func (l *EchoZapLogger) Infof(format string, i ...interface{}) {
	l.Logger.Sugar().Infof(format, i...)
}

func (l *EchoZapLogger) Infoj(j log.JSON) {
	l.Logger.Info("json_message", zap.Any("json", j))
}

func (l *EchoZapLogger) Warn(i ...interface{}) {
	l.Logger.Sugar().Warn(i...)
}

func (l *EchoZapLogger) Warnf(format string, i ...interface{}) {
	l.Logger.Sugar().Warnf(format, i...)
}

func (l *EchoZapLogger) Warnj(j log.JSON) {
	l.Logger.Warn("json_message", zap.Any("json", j))
}

func (l *EchoZapLogger) Error(i ...interface{}) {
	l.Logger.Sugar().Error(i...)
}

func (l *EchoZapLogger) Errorf(format string, i ...interface{}) {
	l.Logger.Sugar().Errorf(format, i...)
}

func (l *EchoZapLogger) Errorj(j log.JSON) {
	l.Logger.Error("json_message", zap.Any("json", j))
}

func (l *EchoZapLogger) Fatal(i ...interface{}) {
	l.Logger.Sugar().Fatal(i...)
}

func (l *EchoZapLogger) Fatalf(format string, i ...interface{}) {
	l.Logger.Sugar().Fatalf(format, i...)
}

func (l *EchoZapLogger) Fatalj(j log.JSON) {
	l.Logger.Fatal("json_message", zap.Any("json", j))
}

func (l *EchoZapLogger) Panic(i ...interface{}) {
	l.Logger.Sugar().Panic(i...)
}

func (l *EchoZapLogger) Panicf(format string, i ...interface{}) {
	l.Logger.Sugar().Panicf(format, i...)
}

func (l *EchoZapLogger) Panicj(j log.JSON) {
	l.Logger.Panic("json_message", zap.Any("json", j))
}

type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(string(p))
	return len(p), nil
}
