// Package ocr abstracts the engine that turns a slip image into raw text.
// The engine returns free text only; all structure is imposed downstream by
// the slip verifier's pattern matching.
package ocr

import "context"

// Engine extracts text from an image. lang is a language hint such as
// "tha" or "eng".
type Engine interface {
	ExtractText(ctx context.Context, image []byte, lang string) (string, error)
}
