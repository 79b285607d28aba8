// Package extraction talks to the external PDF extraction service that turns
// uploaded exam PDFs into structured questions and answer keys.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/kyuwon/physioprep/internal/logger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Default().WithPrefix("extraction"),
	}
}

// ParsedQuestion is one question extracted from a question PDF. The answer
// key arrives separately and is merged later.
type ParsedQuestion struct {
	ProblemID  int      `json:"problem_id"`
	Problem    string   `json:"problem"`
	Choices    []string `json:"choices"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
}

// ParsedAnswer is one entry extracted from an answer-key PDF.
type ParsedAnswer struct {
	ProblemID int `json:"problem_id"`
	AnswerKey int `json:"answer_key"`
}

func (c *Client) ParseQuestions(ctx context.Context, filename string, pdf []byte) ([]ParsedQuestion, error) {
	var payload struct {
		Questions []ParsedQuestion `json:"questions"`
	}
	if err := c.postPDF(ctx, "/parse/questions", filename, pdf, &payload); err != nil {
		return nil, err
	}
	return payload.Questions, nil
}

func (c *Client) ParseAnswerKeys(ctx context.Context, filename string, pdf []byte) ([]ParsedAnswer, error) {
	var payload struct {
		Answers []ParsedAnswer `json:"answers"`
	}
	if err := c.postPDF(ctx, "/parse/answers", filename, pdf, &payload); err != nil {
		return nil, err
	}
	return payload.Answers, nil
}

func (c *Client) postPDF(ctx context.Context, path, filename string, pdf []byte, out any) error {
	log := logger.FromContext(ctx).WithPrefix("extraction").WithField("path", path)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(pdf); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	log.Debug("posting PDF: file=%s, size=%d", filename, len(pdf))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("extraction request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	log.Debug("extraction response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("extraction request failed: status=%d, body=%s", resp.StatusCode, string(msg))
		return fmt.Errorf("extraction status %d: %s", resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error("failed to decode extraction response: %v", err)
		return err
	}
	return nil
}
