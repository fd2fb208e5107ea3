//go:build !tesseract

package main

import (
	"fmt"

	"github.com/okian/gearscan/internal/config"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/pkg/logger"
)

func newNumbers(cfg *config.Config, log logger.Logger) (recognize.NumberRecognizer, func(), error) {
	if cfg.NumberEngine == config.EngineTesseract {
		return nil, nil, fmt.Errorf("%w: %s (build with -tags tesseract)", errNoEngine, cfg.NumberEngine)
	}
	return newKNNNumbers(cfg, log)
}
