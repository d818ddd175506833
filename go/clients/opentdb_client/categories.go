package opentdb_client

import (
	"context"
	"fmt"
)

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CategoriesResponse struct {
	TriviaCategories []Category `json:"trivia_categories"`
}

func (c *OpenTDBClient) GetCategories(ctx context.Context) ([]Category, error) {
	var response CategoriesResponse
	if err := c.GetJSON(ctx, CategoriesEndpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return response.TriviaCategories, nil
}
