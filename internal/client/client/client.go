package client

import (
	"context"

	"github.com/dmitrijs2005/paaster/internal/client/models"
)

type Client interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, req *models.CreateRequest) (*models.Content, error)
	Get(ctx context.Context, id string) (*models.Content, error)
	Download(ctx context.Context, url string) ([]byte, error)
}
