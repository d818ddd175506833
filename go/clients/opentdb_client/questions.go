package opentdb_client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type Question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type QuestionsResponse struct {
	ResponseCode int        `json:"response_code"`
	Results      []Question `json:"results"`
}

// QuestionsParams selects questions. Zero values mean "any".
type QuestionsParams struct {
	Amount     int
	Category   int
	Difficulty string
	Type       string
}

func (p QuestionsParams) values() url.Values {
	q := url.Values{}
	amount := p.Amount
	if amount <= 0 {
		amount = 1
	}
	q.Set("amount", strconv.Itoa(amount))
	if p.Category > 0 {
		q.Set("category", strconv.Itoa(p.Category))
	}
	if p.Difficulty != "" {
		q.Set("difficulty", p.Difficulty)
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	return q
}

// GetQuestions fetches a batch of questions. A non-zero response code is not an
// error here; callers decide how to treat it.
func (c *OpenTDBClient) GetQuestions(ctx context.Context, params QuestionsParams) (*QuestionsResponse, error) {
	var response QuestionsResponse
	if err := c.GetJSON(ctx, QuestionsEndpoint, params.values(), &response); err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return &response, nil
}
