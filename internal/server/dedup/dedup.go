// Package dedup computes perceptual hashes of uploaded photos so the
// same shot of the sky is only recognized once.
package dedup

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"

	_ "image/jpeg"
	_ "image/png"
)

// DefaultThreshold is the maximum Hamming distance between two
// perceptual hashes still considered the same image.
const DefaultThreshold = 5

// ComputeHash decodes a base64 image (with or without a data-URI
// prefix) and returns its pHash as a 16-char hex string.
func ComputeHash(imageBase64 string) (string, error) {
	if strings.HasPrefix(imageBase64, "data:") {
		if i := strings.Index(imageBase64, ","); i >= 0 {
			imageBase64 = imageBase64[i+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("decoding image base64: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("computing perceptual hash: %w", err)
	}

	return fmt.Sprintf("%016x", hash.GetHash()), nil
}

// IsDuplicate reports whether hash is within threshold of any of the
// previously stored hashes. Malformed stored hashes are skipped.
func IsDuplicate(hash string, existing []string, threshold int) bool {
	v, err := strconv.ParseUint(hash, 16, 64)
	if err != nil {
		return false
	}
	candidate := goimagehash.NewImageHash(v, goimagehash.PHash)

	for _, s := range existing {
		w, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			continue
		}
		stored := goimagehash.NewImageHash(w, goimagehash.PHash)
		if d, err := candidate.Distance(stored); err == nil && d <= threshold {
			return true
		}
	}
	return false
}
