//go:build tesseract

package main

import (
	"context"
	"fmt"

	"github.com/okian/gearscan/internal/adapters/vision/tesseract"
	"github.com/okian/gearscan/internal/config"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/pkg/logger"
)

func newNumbers(cfg *config.Config, log logger.Logger) (recognize.NumberRecognizer, func(), error) {
	if cfg.NumberEngine != config.EngineTesseract {
		return newKNNNumbers(cfg, log)
	}
	r, err := tesseract.New()
	if err != nil {
		return nil, nil, fmt.Errorf("start tesseract: %w", err)
	}
	return r, func() {
		if err := r.Close(); err != nil {
			log.Warn(context.Background(), "close tesseract", logger.Error(err))
		}
	}, nil
}
