package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/services/fixflow"
)

type fakeFixFlow struct {
	views     map[string]*dto.FixReceiptView
	submitErr error
	tracked   []string
}

func (f *fakeFixFlow) EnsureEditToken(ctx context.Context, receiptID string) (string, error) {
	return "tok", nil
}

func (f *fakeFixFlow) GetByToken(ctx context.Context, token string) (*dto.FixReceiptView, error) {
	return f.views[token], nil
}

func (f *fakeFixFlow) SubmitFix(ctx context.Context, token string, fix dto.FixSubmission) error {
	return f.submitErr
}

func (f *fakeFixFlow) TrackOpen(ctx context.Context, token string) {
	f.tracked = append(f.tracked, token)
}

func (f *fakeFixFlow) SendFixNotifications(ctx context.Context) (int, error) {
	return 0, nil
}

func fixRouter(fixFlow *fakeFixFlow) *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()

	handler := NewFixHandler(log, fixFlow)
	r := gin.New()
	r.GET("/fix/:token", handler.Get)
	r.POST("/fix/:token", handler.Submit)
	r.GET("/api/track/:token", handler.TrackOpen)
	return r
}

func TestFixHandler_Get(t *testing.T) {
	fixFlow := &fakeFixFlow{views: map[string]*dto.FixReceiptView{
		"tok-1": {ID: "rcpt_1", OriginalFilename: "lunch.jpg"},
	}}
	router := fixRouter(fixFlow)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fix/tok-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lunch.jpg")
}

func TestFixHandler_Get_UnknownToken(t *testing.T) {
	router := fixRouter(&fakeFixFlow{views: map[string]*dto.FixReceiptView{}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fix/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFixHandler_Submit(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		wantStatus int
	}{
		{"valid submission", nil, http.StatusOK},
		{"unknown token", fixflow.ErrReceiptNotFound, http.StatusNotFound},
		{"missing fields", fixflow.ErrInvalidSubmission, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := fixRouter(&fakeFixFlow{submitErr: tt.submitErr})

			body := strings.NewReader(`{"vendor":"Acme","amount":5,"date":"2025-11-02"}`)
			req := httptest.NewRequest(http.MethodPost, "/fix/tok-1", body)
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestFixHandler_TrackOpen_AlwaysServesPixel(t *testing.T) {
	fixFlow := &fakeFixFlow{}
	router := fixRouter(fixFlow)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/track/any-token", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
	assert.Equal(t, []string{"any-token"}, fixFlow.tracked)
}
