package ocr

import "time"

// Engine identifiers accepted by Config.Primary.
const (
	EngineTesseract = "tesseract"
	EngineEasyOCR   = "easyocr"
)

type Config struct {
	Primary string // EngineTesseract | EngineEasyOCR; the other one is the image fallback
	Lang    string // tesseract language code, default "eng"

	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default

	EasyOCREndpoint string        // full URL of the EasyOCR sidecar; empty disables the engine
	EasyOCRTimeout  time.Duration // default 60s

	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit

	MinConfidence float64 // results below this mean confidence are flagged for review, default 60
}

func (c Config) withDefaults() Config {
	if c.Primary == "" {
		c.Primary = EngineTesseract
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.EasyOCRTimeout <= 0 {
		c.EasyOCRTimeout = 60 * time.Second
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 60
	}
	return c
}
