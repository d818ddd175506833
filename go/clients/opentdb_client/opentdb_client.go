package opentdb_client

import (
	"github.com/mcdev12/trivia/go/clients"
)

type OpenTDBClient struct {
	*clients.BaseClient
}

func NewOpenTDBClient(baseURL string) *OpenTDBClient {
	if baseURL == "" {
		baseURL = BaseURL
	}

	client := &OpenTDBClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Accept", "application/json")

	return client
}
