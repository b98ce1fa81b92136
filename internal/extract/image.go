package extract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/aman-cerp/semindex/internal/model"
)

// imageExtensions lists the raster formats OCR is attempted on.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tiff": true, ".tif": true, ".gif": true, ".webp": true,
}

// extractImage OCRs the image, then appends an EXIF metadata block
// (camera, lens, settings, a human expansion of the capture timestamp,
// and, when GPS is present and a resolver is supplied, a reverse-geocoded
// place name).
func extractImage(path string, content []byte, geo GeoResolver) (*ExtractedBody, error) {
	if geo == nil {
		geo = NoOpGeoResolver{}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(content); err != nil {
		return nil, Skipped(path, fmt.Sprintf("ocr setup failed: %v", err))
	}
	ocrText, err := client.Text()
	if err != nil {
		return nil, Skipped(path, fmt.Sprintf("ocr failed: %v", err))
	}
	ocrText = strings.TrimSpace(ocrText)

	body := &ExtractedBody{
		Text:      ocrText,
		Extractor: model.ExtractorImageOCR,
	}
	if ocrText != "" {
		body.Blocks = append(body.Blocks, MetadataBlock{Kind: model.ChunkKindOCR, Text: ocrText})
	}

	if exifBlock := extractEXIFBlock(content, geo); exifBlock != "" {
		body.Blocks = append(body.Blocks, MetadataBlock{Kind: model.ChunkKindOCR, Text: exifBlock})
	}

	if body.Text == "" && len(body.Blocks) == 0 {
		return nil, Skipped(path, "image contained no OCR text or EXIF metadata")
	}
	return body, nil
}

// extractEXIFBlock renders camera, lens, numeric settings, a human
// expansion of the capture timestamp, and (when resolvable) a GPS place
// name as a single text block. Returns "" if the image carries no EXIF.
func extractEXIFBlock(content []byte, geo GeoResolver) string {
	x, err := exif.Decode(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var lines []string
	if tag, err := x.Get(exif.Make); err == nil {
		if v, err := tag.StringVal(); err == nil {
			lines = append(lines, "camera make: "+v)
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil {
			lines = append(lines, "camera model: "+v)
		}
	}
	if tag, err := x.Get(exif.LensModel); err == nil {
		if v, err := tag.StringVal(); err == nil {
			lines = append(lines, "lens: "+v)
		}
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		lines = append(lines, "aperture: "+tag.String())
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		lines = append(lines, "exposure: "+tag.String())
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		lines = append(lines, "iso: "+tag.String())
	}

	if captured, err := x.DateTime(); err == nil {
		lines = append(lines, "captured: "+humanizeTimestamp(captured))
	}

	if lat, lon, err := x.LatLong(); err == nil {
		if place, ok := geo.Resolve(lat, lon); ok {
			lines = append(lines, "location: "+place)
		} else {
			lines = append(lines, fmt.Sprintf("location: %.5f, %.5f", lat, lon))
		}
	}

	return strings.Join(lines, "\n")
}

// humanizeTimestamp expands an EXIF capture time into a description like
// "2024-07-15, Monday, summer morning".
func humanizeTimestamp(t time.Time) string {
	return fmt.Sprintf("%s, %s, %s", t.Format("2006-01-02"), t.Weekday(), seasonalPartOfDay(t))
}

func seasonalPartOfDay(t time.Time) string {
	return fmt.Sprintf("%s %s", season(t.Month()), partOfDay(t.Hour()))
}

func season(m time.Month) string {
	switch {
	case m == time.December || m == time.January || m == time.February:
		return "winter"
	case m >= time.March && m <= time.May:
		return "spring"
	case m >= time.June && m <= time.August:
		return "summer"
	default:
		return "autumn"
	}
}

func partOfDay(hour int) string {
	switch {
	case hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}
