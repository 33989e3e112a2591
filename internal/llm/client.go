// Package llm implements the delegated field extractor: it forwards one
// transcript to an OpenAI-compatible chat-completions API with a fixed
// instruction and parses the reply strictly as a 1003 field list.
//
// Failures are classified once, at this boundary, into typed error kinds
// (auth, rate-limited, upstream, unexpected) so callers can decide whether
// to retry, fall back to the deterministic extractor, or surface the error.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/formsiq/formsiq/internal/extract"
)

// System prompt for 1003 field extraction. Enumerates the required field
// names, declares the output shape, and instructs null/0.0 entries for
// fields the model cannot find.
const systemPrompt = `You are a data extraction assistant for the 1003 mortgage application form.
Extract these fields from the call transcript:
Borrower Name, Property Address, Loan Amount, Loan Term, Interest Rate, SSN, Date of Birth, Income.

RULES:
1. Extract ONLY values explicitly stated in the transcript - never infer or assume
2. For each field output an object with "field_name", "field_value", and "confidence_score" (0-1)
3. For any field you cannot find, output it with "field_value": null and "confidence_score": 0.0
4. Respond ONLY with JSON: { "fields": [ ... ] }`

// Client handles communication with OpenAI-compatible chat-completion APIs.
type Client struct {
	config Config
	http   *http.Client
}

// ChatRequest represents an OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a message in the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the expected response format.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatResponse represents an OpenAI-compatible chat completion response.
type ChatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// extractionReply is the structured reply declared in the system prompt.
type extractionReply struct {
	Fields []extract.Field `json:"fields"`
}

// NewClient creates a delegated extractor client with the given
// configuration. The config is copied; nothing global is consulted.
func NewClient(config *Config) *Client {
	return &Client{
		config: *config,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSecs) * time.Second,
		},
	}
}

// Extract sends one transcript to the configured model with deterministic
// sampling (temperature 0) and a bounded output length, parses the reply,
// and normalizes the field list. On failure it returns a *ServiceError.
func (c *Client) Extract(ctx context.Context, transcript string) (extract.Result, error) {
	req := ChatRequest{
		Model: c.config.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Transcript:\n\"\"\"\n%s\n\"\"\"", transcript)},
		},
		Temperature: 0.0,
		MaxTokens:   c.config.MaxTokens,
		ResponseFormat: &ResponseFormat{
			Type: "json_object",
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		fields, err := c.attemptExtraction(ctx, req)
		if err == nil {
			return extract.Result{Fields: extract.Normalize(fields)}, nil
		}
		lastErr = err

		// Auth failures never succeed on retry.
		var httpErr *httpError
		if errors.As(err, &httpErr) && classifyStatus(httpErr.StatusCode) == KindAuth {
			break
		}

		if attempt == c.config.MaxRetries {
			break
		}

		// Exponential backoff: 1s, 2s, 4s. Rate limits respect Retry-After.
		backoff := time.Duration(1<<attempt) * time.Second
		if errors.As(err, &httpErr) && httpErr.StatusCode == 429 && httpErr.RetryAfter > 0 {
			backoff = httpErr.RetryAfter
		}

		select {
		case <-ctx.Done():
			return extract.Result{}, toServiceError(ctx.Err())
		case <-time.After(backoff):
		}
	}

	return extract.Result{}, toServiceError(lastErr)
}

// httpError carries an upstream HTTP failure through the retry loop before
// it is classified into a ServiceError.
type httpError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// toServiceError classifies any failure into the typed taxonomy.
func toServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	var he *httpError
	if errors.As(err, &he) {
		return &ServiceError{
			Kind:       classifyStatus(he.StatusCode),
			Message:    fmt.Sprintf("upstream returned HTTP %d: %s", he.StatusCode, strings.TrimSpace(he.Message)),
			RetryAfter: he.RetryAfter,
		}
	}

	return &ServiceError{Kind: KindUnexpected, Message: err.Error()}
}

// attemptExtraction makes a single extraction attempt.
func (c *Client) attemptExtraction(ctx context.Context, req ChatRequest) ([]extract.Field, error) {
	resp, err := c.sendChatRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, &ServiceError{Kind: KindUnexpected, Message: "no choices in model response"}
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, &ServiceError{Kind: KindUnexpected, Message: "empty response from model"}
	}

	fields, err := parseExtractionReply(content)
	if err != nil {
		// Malformed reply is a parse failure, surfaced as unexpected.
		return nil, &ServiceError{Kind: KindUnexpected, Message: fmt.Sprintf("parsing model reply: %v", err)}
	}

	return fields, nil
}

// sendChatRequest sends a chat completion request to the configured API.
func (c *Client) sendChatRequest(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.Endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != 200 {
		var retryAfter time.Duration
		if retryAfterHeader := resp.Header.Get("Retry-After"); retryAfterHeader != "" {
			if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}

		return nil, &httpError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			RetryAfter: retryAfter,
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}

	return &chatResp, nil
}

// parseExtractionReply parses the model's reply strictly as the declared
// shape and drops entries that violate the field contract.
func parseExtractionReply(content string) ([]extract.Field, error) {
	content = strings.TrimSpace(content)

	var reply extractionReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if reply.Fields == nil {
		return nil, fmt.Errorf(`reply has no "fields" array`)
	}

	valid := make([]extract.Field, 0, len(reply.Fields))
	for _, f := range reply.Fields {
		if err := validateField(f); err != nil {
			continue // skip malformed entries
		}
		valid = append(valid, f)
	}
	return valid, nil
}

// validateField checks one reply entry against the field contract.
func validateField(f extract.Field) error {
	if f.FieldName == "" {
		return fmt.Errorf("field_name is required")
	}
	if f.ConfidenceScore < 0.0 || f.ConfidenceScore > 1.0 {
		return fmt.Errorf("confidence_score must be between 0.0 and 1.0, got %.2f", f.ConfidenceScore)
	}
	return nil
}
