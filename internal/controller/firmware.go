package controller

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// DefaultMaxFirmwareSize is the upload limit used when none is configured.
const DefaultMaxFirmwareSize int64 = 2 << 20 // 2 MiB

// HashFirmware streams r through SHA-256 without buffering the image.
//
// It reads at most maxSize+1 bytes so an oversized upload is rejected as
// soon as it crosses the limit. The returned FirmwareInfo is not staged.
func HashFirmware(r io.Reader, maxSize int64, now time.Time) (FirmwareInfo, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFirmwareSize
	}

	h := sha256.New()
	n, err := io.Copy(h, io.LimitReader(r, maxSize+1))
	if err != nil {
		return FirmwareInfo{}, fmt.Errorf("reading firmware image: %w", err)
	}
	if n == 0 {
		return FirmwareInfo{}, ErrFirmwareEmpty
	}
	if n > maxSize {
		return FirmwareInfo{}, ErrFirmwareTooLarge
	}

	return FirmwareInfo{
		SHA256:     hex.EncodeToString(h.Sum(nil)),
		Size:       n,
		UploadedAt: formatTime(now),
		Staged:     false,
	}, nil
}
