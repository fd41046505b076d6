package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
)

const (
	SpanTagEntityId  = "entity-id"
	SpanTagComponent = "component"
)

const (
	SpanTagComponentPostgresRepository = "postgresRepository"
	SpanTagComponentRest               = "rest"
	SpanTagComponentService            = "service"
	SpanTagComponentCronJob            = "cronJob"
	SpanTagComponentSmtp               = "smtpServer"
	SpanTagComponentImap               = "imapPoller"
)

func TracingEnhancer(ctx context.Context, endpoint string) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctxWithSpan, span := StartHttpServerTracerSpanWithHeader(ctx, endpoint, c.Request.Header)
		defer span.Finish()
		TagComponentRest(span)
		c.Request = c.Request.WithContext(ctxWithSpan)
		c.Next()
	}
}

func StartHttpServerTracerSpanWithHeader(ctx context.Context, operationName string, headers http.Header) (context.Context, opentracing.Span) {
	spanCtx, err := opentracing.GlobalTracer().Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(headers))
	if err != nil {
		serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
		opentracing.GlobalTracer().Inject(serverSpan.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(headers))
		return opentracing.ContextWithSpan(ctx, serverSpan), serverSpan
	}

	serverSpan := opentracing.GlobalTracer().StartSpan(operationName, ext.RPCServerOption(spanCtx))
	return opentracing.ContextWithSpan(ctx, serverSpan), serverSpan
}

func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
	return serverSpan, opentracing.ContextWithSpan(ctx, serverSpan)
}

func SetDefaultServiceSpanTags(ctx context.Context, span opentracing.Span) {
	TagComponentService(span)
}

func SetDefaultPostgresRepositorySpanTags(ctx context.Context, span opentracing.Span) {
	TagComponentPostgresRepository(span)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	ext.LogError(span, err, fields...)
}

func LogObjectAsJson(span opentracing.Span, name string, object any) {
	if object == nil {
		span.LogFields(log.String(name, "nil"))
	}
	jsonObject, err := json.Marshal(object)
	if err == nil {
		span.LogFields(log.String(name, string(jsonObject)))
	} else {
		span.LogFields(log.Object(name, object))
	}
}

func TagComponentPostgresRepository(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentPostgresRepository)
}

func TagComponentRest(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentRest)
}

func TagComponentService(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentService)
}

func TagComponentCronJob(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentCronJob)
}

func TagComponentSMTPServer(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentSmtp)
}

func TagComponentIMAPPoller(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentImap)
}

func TagEntity(span opentracing.Span, entityId string) {
	if entityId != "" {
		span.SetTag(SpanTagEntityId, entityId)
	}
}

// RecoverAndLogToJaeger turns a goroutine panic into a failed span instead of
// a crashed process. Use as a deferred call at the top of background jobs.
func RecoverAndLogToJaeger(logf func(template string, args ...interface{})) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan("panic.recovered")
		defer span.Finish()
		ext.Error.Set(span, true)
		span.LogKV(
			"event", "panic",
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
		logf("recovered from panic: %v", r)
	}
}

// RecoveryWithJaeger reports gin handler panics as failed spans before re-raising a 500.
func RecoveryWithJaeger(tracer opentracing.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				span := tracer.StartSpan(fmt.Sprintf("panic.%s", c.FullPath()))
				defer span.Finish()
				ext.Error.Set(span, true)
				span.LogKV(
					"event", "panic",
					"error", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
