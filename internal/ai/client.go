// Package ai turns free-text like "lunch 12.50 yesterday" into a
// transaction draft using an OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/hray3182/LifeLedger/internal/common"
	"github.com/hray3182/LifeLedger/internal/models"
)

// Completer is the part of openai.Client the parser needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	client Completer
	model  string
	now    func() time.Time
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return NewWithCompleter(openai.NewClientWithConfig(config), model)
}

func NewWithCompleter(c Completer, model string) *Client {
	return &Client{client: c, model: model, now: time.Now}
}

func (c *Client) SetModel(model string) {
	c.model = model
}

// Draft is a transaction suggested from free text. The caller reviews it
// before anything is stored.
type Draft struct {
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	Category   string          `json:"category,omitempty"`
	CategoryID *int64          `json:"categoryId,omitempty"`
	Frequency  string          `json:"frequency,omitempty"`
	Confidence float64         `json:"confidence"`
}

type rawDraft struct {
	Date       string  `json:"date"`
	Amount     string  `json:"amount"`
	IsIncome   bool    `json:"is_income"`
	Note       string  `json:"note"`
	Category   string  `json:"category"`
	Frequency  string  `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

const systemPromptTemplate = `You extract a single personal finance transaction from the user's message.

Today is %s.

Rules:
- date: the transaction date as YYYY-MM-DD. Resolve relative dates ("yesterday", "last friday") against today. Use today when no date is given.
- amount: the absolute amount as a decimal string without currency symbols, e.g. "12.50".
- is_income: true for salary, refunds and other money received; false for spending.
- note: a short description in the user's language.
- category: the best match from this list, or an empty string when nothing fits: %s
- frequency: DAILY, WEEKLY, MONTHLY or YEARLY when the user describes a repeating payment ("rent every month"), otherwise an empty string.
- confidence: between 0 and 1.`

var draftSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"date": {"type": "string", "description": "Transaction date, YYYY-MM-DD"},
		"amount": {"type": "string", "description": "Absolute amount as a decimal string"},
		"is_income": {"type": "boolean"},
		"note": {"type": "string"},
		"category": {"type": "string", "description": "Category name from the provided list or empty"},
		"frequency": {"type": "string", "enum": ["", "DAILY", "WEEKLY", "MONTHLY", "YEARLY"]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"required": ["date", "amount", "is_income", "note", "category", "frequency", "confidence"],
	"additionalProperties": false
}`)

// ParseTransaction asks the model for a draft of text. categories are the
// user's category names; a matching name is resolved to its id.
func (c *Client) ParseTransaction(ctx context.Context, text string, categories []*models.Category) (*Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.Invalidf("text is required")
	}

	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	today := c.now().Format("2006-01-02 (Monday)")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTemplate, today, strings.Join(names, ", ")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "transaction_draft",
				Schema: draftSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	var raw rawDraft
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return toDraft(raw, categories)
}

func toDraft(raw rawDraft, categories []*models.Category) (*Draft, error) {
	if _, err := models.ParseDate(raw.Date); err != nil {
		return nil, fmt.Errorf("AI returned invalid date %q: %w", raw.Date, err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw.Amount))
	if err != nil {
		return nil, fmt.Errorf("AI returned invalid amount %q: %w", raw.Amount, err)
	}
	amount = amount.Abs()
	if !raw.IsIncome {
		amount = amount.Neg()
	}

	d := &Draft{
		Date:       raw.Date,
		Amount:     amount,
		Note:       strings.TrimSpace(raw.Note),
		Frequency:  raw.Frequency,
		Confidence: raw.Confidence,
	}
	if d.Frequency != "" {
		if _, err := models.ParseFrequency(d.Frequency); err != nil {
			d.Frequency = ""
		}
	}
	for _, cat := range categories {
		if raw.Category != "" && strings.EqualFold(cat.Name, raw.Category) {
			id := cat.CategoryID
			d.Category = cat.Name
			d.CategoryID = &id
			break
		}
	}
	return d, nil
}
