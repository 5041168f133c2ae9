package config

import (
	"sync"
)

type OCRConfig struct {
	Language  string
	Threshold uint8
}

var (
	ocrConfig *OCRConfig
	ocrOnce   sync.Once
)

func LoadOCRConfig() *OCRConfig {
	ocrOnce.Do(func() {
		v := env()
		v.SetDefault("OCR_LANGUAGE", "eng")
		v.SetDefault("OCR_THRESHOLD", 100)
		threshold := v.GetInt("OCR_THRESHOLD")
		if threshold < 0 || threshold > 255 {
			threshold = 100
		}
		ocrConfig = &OCRConfig{
			Language:  v.GetString("OCR_LANGUAGE"),
			Threshold: uint8(threshold),
		}
	})
	return ocrConfig
}
