package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// GenerateUniqueFilename returns a collision-free name that keeps the
// original extension, e.g. "3f2c..._estoque.csv".
func GenerateUniqueFilename(original string) string {
	base := strings.TrimSpace(original)
	base = strings.ReplaceAll(base, "/", "_")
	base = strings.ReplaceAll(base, "\\", "_")
	if base == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "_" + base
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["request"] = err.Error()
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			// if not exists in map, append it, otherwise do nothing
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// ChunkSlice splits slice into consecutive chunks of at most size elements.
// The chunks share the backing array of slice.
func ChunkSlice[T any](slice []T, size int) [][]T {
	if size <= 0 {
		size = len(slice)
	}
	var chunks [][]T
	for start := 0; start < len(slice); start += size {
		end := start + size
		if end > len(slice) {
			end = len(slice)
		}
		chunks = append(chunks, slice[start:end:end])
	}
	return chunks
}

// NormalizeLocation is the canonical form used to store and compare
// storage positions and material codes.
func NormalizeLocation(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
