package app

import (
	"log/slog"

	"github.com/heartmarshall/wordbrowser/internal/adapter/provider/freedict"
	"github.com/heartmarshall/wordbrowser/internal/adapter/provider/randomword"
	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/service/wordfeed"
)

// NewWordFeed wires the random-word client and the dictionary provider into
// the acquisition pipeline.
func NewWordFeed(cfg config.WordsConfig, logger *slog.Logger) *wordfeed.Service {
	return wordfeed.NewService(
		logger,
		randomword.NewClient(cfg, logger),
		freedict.NewProvider(cfg, logger),
		cfg,
	)
}
