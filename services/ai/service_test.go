package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/internal/enum"
)

func testSpan() opentracing.Span {
	return opentracing.NoopTracer{}.StartSpan("test")
}

func TestReceiptPrompt_OffersExactlyTheCategoryEnum(t *testing.T) {
	// The prompt's category list and the fix-flow validation share one source
	// of truth; a category the model returns must survive a later fix submit.
	assert.Contains(t, receiptPrompt, `"category": "one of: `+strings.Join(enum.ExpenseCategories, ", ")+`"`)

	for _, category := range enum.ExpenseCategories {
		assert.True(t, enum.IsValidExpenseCategory(category), category)
	}
}

func TestParseAnalysisReply_PlainJSON(t *testing.T) {
	reply := `{"vendor":"Acme Coffee","amount":4.5,"currency":"EUR","date":"2025-11-02","category":"Meals & Entertainment"}`

	analysis := parseAnalysisReply(testSpan(), reply)

	assert.Equal(t, "Acme Coffee", analysis.Vendor)
	assert.Equal(t, 4.5, analysis.Amount)
	assert.Equal(t, "EUR", analysis.Currency)
	assert.Equal(t, "2025-11-02", analysis.Date)
}

func TestParseAnalysisReply_JSONWrappedInProse(t *testing.T) {
	reply := "Here is the extracted data:\n```json\n{\"vendor\":\"Acme\",\"amount\":12}\n```\nLet me know if you need anything else."

	analysis := parseAnalysisReply(testSpan(), reply)

	assert.Equal(t, "Acme", analysis.Vendor)
	assert.Equal(t, 12.0, analysis.Amount)
}

func TestParseAnalysisReply_NoJSON(t *testing.T) {
	reply := "I could not read this receipt."

	analysis := parseAnalysisReply(testSpan(), reply)

	assert.Equal(t, "", analysis.Vendor)
	assert.Equal(t, reply, analysis.RawText)
}

func TestParseAnalysisReply_MalformedJSON(t *testing.T) {
	reply := `{"vendor": "Acme", "amount": }`

	analysis := parseAnalysisReply(testSpan(), reply)

	// The raw reply is kept so the receipt can be fixed manually.
	assert.Equal(t, reply, analysis.RawText)
	assert.Equal(t, "", analysis.Vendor)
}

func TestParseAnalysisReply_DefaultCurrency(t *testing.T) {
	analysis := parseAnalysisReply(testSpan(), `{"vendor":"Acme","amount":5}`)

	assert.Equal(t, "USD", analysis.Currency)
}

func TestAnalyzeReceipt_FileTooLarge(t *testing.T) {
	service := NewAIService(&config.AnalysisAPIConfig{})

	analysis, err := service.AnalyzeReceipt(context.Background(), make([]byte, MaxAnalyzableSize+1), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "File too large", analysis.RawText)
	assert.Equal(t, "USD", analysis.Currency)
	assert.Equal(t, "", analysis.Vendor)
}

func TestAnalyzeReceipt_RoundTrip(t *testing.T) {
	var gotRequest messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"vendor\":\"Acme\",\"amount\":9.99,\"date\":\"2025-11-02\"}"}]}`))
	}))
	defer server.Close()

	service := NewAIService(&config.AnalysisAPIConfig{
		Url:       server.URL,
		ApiKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 1024,
	})

	analysis, err := service.AnalyzeReceipt(context.Background(), []byte("fake-image"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Acme", analysis.Vendor)
	assert.Equal(t, 9.99, analysis.Amount)
	assert.Equal(t, "2025-11-02", analysis.Date)

	require.Len(t, gotRequest.Messages, 1)
	require.Len(t, gotRequest.Messages[0].Content, 2)
	assert.Equal(t, "image", gotRequest.Messages[0].Content[0].Type)
	assert.Equal(t, "image/png", gotRequest.Messages[0].Content[0].Source.MediaType)
}

func TestAnalyzeReceipt_PDFUsesDocumentBlock(t *testing.T) {
	var gotRequest messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{}"}]}`))
	}))
	defer server.Close()

	service := NewAIService(&config.AnalysisAPIConfig{Url: server.URL, ApiKey: "k", Model: "m", MaxTokens: 64})

	_, err := service.AnalyzeReceipt(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)

	require.Len(t, gotRequest.Messages, 1)
	assert.Equal(t, "document", gotRequest.Messages[0].Content[0].Type)
}

func TestAnalyzeReceipt_APIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := NewAIService(&config.AnalysisAPIConfig{Url: server.URL, ApiKey: "k", Model: "m", MaxTokens: 64})

	_, err := service.AnalyzeReceipt(context.Background(), []byte("img"), "image/jpeg")
	assert.Error(t, err)
}
