package cvgen

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// MaxImageBytes caps profile pictures.
const MaxImageBytes = 10 << 20

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
)

// ImageFormat returns "png" or "jpeg" for a recognised header, or "".
func ImageFormat(header []byte) string {
	switch {
	case bytes.HasPrefix(header, pngSignature):
		return "png"
	case bytes.HasPrefix(header, jpegSignature):
		return "jpeg"
	}
	return ""
}

// CheckImageFile validates an image already on disk: non-empty, at most
// MaxImageBytes, with a PNG or JPEG header.
func CheckImageFile(path string) error {
	f, err := os.Open(path) // #nosec G304 -- resolved asset path
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidImage, path)
	}
	if info.Size() > MaxImageBytes {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrImageTooLarge, path, info.Size(), MaxImageBytes)
	}

	header := make([]byte, len(pngSignature))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return err
	}
	if ImageFormat(header[:n]) == "" {
		return fmt.Errorf("%w: %s", ErrInvalidImage, path)
	}
	return nil
}
