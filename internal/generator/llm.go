// Package generator talks to the LLM backing the question source and the
// feedback generator. The wire protocol is OpenAI-compatible chat
// completions; the model and endpoint are configuration.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quizflow-service/internal/config"
	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
)

type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	model         string
	questionCount int
}

func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		questionCount: cfg.QuestionCount,
	}
}

// QuestionCount is the fixed quiz size this client generates.
func (c *Client) QuestionCount() int { return c.questionCount }

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
	Stream   bool                    `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// genQuestion mirrors the JSON shape the prompt demands.
type genQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// GenerateQuestions produces the fixed-size quiz for a topic. Output that
// does not parse as the expected structure, or that violates the question
// contract, is a generation error: the quiz cannot start without it.
func (c *Client) GenerateQuestions(ctx context.Context, topic string) ([]models.Question, error) {
	prompt := fmt.Sprintf(`Generate %d multiple-choice questions about %s.
Each question should have 4 options and one correct answer.
Format your response as a JSON array of questions where each question has:
- id (number 1-%d)
- question (string)
- options (array of 4 strings)
- correctAnswer (string matching one of the options exactly)

Make sure questions are challenging but fair, and cover different aspects of %s.
Respond with the JSON array only, no other text.`,
		c.questionCount, topic, c.questionCount, topic)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed []genQuestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, quizerr.Wrap(quizerr.Generation, "malformed question JSON from model", err)
	}
	if len(parsed) != c.questionCount {
		return nil, quizerr.Newf(quizerr.Generation, "expected %d questions, model returned %d", c.questionCount, len(parsed))
	}

	questions := make([]models.Question, len(parsed))
	for i, g := range parsed {
		questions[i] = models.Question{
			ID:            i + 1,
			Question:      g.Question,
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
		}
		if err := questions[i].Validate(); err != nil {
			return nil, quizerr.Wrap(quizerr.Generation, "model output violates question contract", err)
		}
	}
	return questions, nil
}

// GenerateFeedback asks the model for narrative feedback on a finished
// attempt. Failure here is recoverable: the caller falls back to the
// tiered recommendation alone.
func (c *Client) GenerateFeedback(ctx context.Context, topic string, questions []models.Question, answers []string) (string, error) {
	score := 0
	var review strings.Builder
	for i, q := range questions {
		if answers[i] == q.CorrectAnswer {
			score++
		}
		fmt.Fprintf(&review, "\nQ%d: %s\nUser's answer: %s\nCorrect answer: %s\n", i+1, q.Question, answers[i], q.CorrectAnswer)
	}

	prompt := fmt.Sprintf(`The user took a quiz about %s and got %d out of %d questions correct.

Here are the questions and their responses:
%s
Please provide detailed, constructive feedback about their performance. Include:
1. Areas where they did well
2. Concepts they might need to review
3. Specific resources or tips for improvement
4. Encouragement for further learning

Keep the tone positive and supportive.`, topic, score, len(questions), review.String())

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatCompletionMessage{
			{Role: "user", Content: prompt},
		},
		Stream: false,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", quizerr.Wrap(quizerr.Generation, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", quizerr.Wrap(quizerr.Generation, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", quizerr.Wrap(quizerr.Generation, "model request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", quizerr.Wrap(quizerr.Generation, "read model response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", quizerr.Newf(quizerr.Generation, "model returned status %d: %.200s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", quizerr.Wrap(quizerr.Generation, "decode model response", err)
	}
	if len(completion.Choices) == 0 {
		return "", quizerr.New(quizerr.Generation, "model returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence the model may wrap around its
// JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
