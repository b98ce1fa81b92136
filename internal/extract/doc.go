// Package extract turns a file on disk into an ExtractedBody: decoded text
// plus a language hint and trailing metadata blocks (OCR text, EXIF,
// git log), dispatched by extension and a binary content sniff.
package extract
