package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/tracing"
)

// MaxAnalyzableSize is the largest attachment sent to the analysis API.
// Bigger files are stored but get an empty analysis result.
const MaxAnalyzableSize = 15 * 1024 * 1024

type aiService struct {
	AnalysisAPIConfig *config.AnalysisAPIConfig
	httpClient        *http.Client
}

func NewAIService(config *config.AnalysisAPIConfig) interfaces.AIService {
	return &aiService{
		AnalysisAPIConfig: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Messages  []requestMessage `json:"messages"`
}

type requestMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *blockSource `json:"source,omitempty"`
}

type blockSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func (s *aiService) AnalyzeReceipt(ctx context.Context, content []byte, mediaType string) (*dto.ReceiptAnalysis, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aiService.AnalyzeReceipt")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(log.String("mediaType", mediaType), log.Int("size", len(content)))

	if len(content) > MaxAnalyzableSize {
		span.LogFields(log.String("result", "file too large"))
		return &dto.ReceiptAnalysis{
			Currency: "USD",
			RawText:  "File too large",
		}, nil
	}

	blockType := "image"
	if mediaType == "application/pdf" {
		blockType = "document"
	}

	request := messagesRequest{
		Model:     s.AnalysisAPIConfig.Model,
		MaxTokens: s.AnalysisAPIConfig.MaxTokens,
		Messages: []requestMessage{
			{
				Role: "user",
				Content: []contentBlock{
					{
						Type: blockType,
						Source: &blockSource{
							Type:      "base64",
							MediaType: mediaType,
							Data:      base64.StdEncoding.EncodeToString(content),
						},
					},
					{
						Type: "text",
						Text: receiptPrompt,
					},
				},
			},
		},
	}

	payload, err := json.Marshal(request)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.AnalysisAPIConfig.Url+"/v1/messages", bytes.NewBuffer(payload))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.AnalysisAPIConfig.ApiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "unable to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("analysis request failed with status code %d: %s", resp.StatusCode, string(body))
		tracing.TraceErr(span, err)
		return nil, err
	}

	var response messagesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var replyText string
	for _, block := range response.Content {
		if block.Type == "text" {
			replyText += block.Text
		}
	}

	return parseAnalysisReply(span, replyText), nil
}

// parseAnalysisReply extracts the first JSON object from the model reply.
// A reply with no parseable JSON still produces a result carrying the raw
// reply text, so the receipt is kept and can be fixed manually later.
func parseAnalysisReply(span opentracing.Span, replyText string) *dto.ReceiptAnalysis {
	analysis := &dto.ReceiptAnalysis{}

	match := jsonObjectRe.FindString(replyText)
	if match == "" {
		span.LogFields(log.String("result", "no json in reply"))
		analysis.RawText = replyText
		return analysis
	}

	if err := json.Unmarshal([]byte(match), analysis); err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "malformed analysis json"))
		return &dto.ReceiptAnalysis{RawText: replyText}
	}

	if analysis.Currency == "" {
		analysis.Currency = "USD"
	}
	return analysis
}
