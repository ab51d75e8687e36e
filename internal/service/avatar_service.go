package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"socialblog/internal/config"
	"socialblog/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot      = "media"
	DefaultMaxAvatarBytes = 5 * 1024 * 1024
	AvatarSize            = 300
	AvatarQuality         = 80
	avatarDir             = "avatars"
)

// AvatarUpload is a raw image received from the profile form.
type AvatarUpload struct {
	Filename string
	Content  []byte
}

// AvatarService turns uploaded images into square WebP avatars stored under
// MEDIA_ROOT/avatars.
type AvatarService struct {
	mediaRoot string
	maxBytes  int64
}

func NewAvatarService(cfg *config.Config) *AvatarService {
	s := &AvatarService{mediaRoot: DefaultMediaRoot, maxBytes: DefaultMaxAvatarBytes}
	if cfg != nil {
		if cfg.MediaRoot != "" {
			s.mediaRoot = cfg.MediaRoot
		}
		if cfg.MaxAvatarBytes > 0 {
			s.maxBytes = cfg.MaxAvatarBytes
		}
	}
	return s
}

// MediaRoot is the directory served under /media.
func (s *AvatarService) MediaRoot() string {
	return s.mediaRoot
}

// Store validates, crops and encodes the upload and returns the path of the
// stored file relative to the media root. Identical uploads by the same user
// map to the same file.
func (s *AvatarService) Store(userID uint, in AvatarUpload) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewFieldError("image", "The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return "", models.NewFieldError("image", fmt.Sprintf("File too large (max %dKB).", s.maxBytes/1024))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", models.NewFieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewFieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	avatar := resizeSquare(cropCenterSquare(decoded), AvatarSize)
	encoded, err := encodeWebP(avatar, AvatarQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	rel := path.Join(avatarDir, avatarHash(userID, encoded)+".webp")
	if err := writeBytesToFile(filepath.Join(s.mediaRoot, filepath.FromSlash(rel)), encoded); err != nil {
		return "", models.NewInternalError(err)
	}
	return rel, nil
}

// Remove deletes a previously stored avatar. Paths outside the avatar
// directory are ignored.
func (s *AvatarService) Remove(rel string) {
	if rel == "" || path.Dir(path.Clean(rel)) != avatarDir {
		return
	}
	_ = os.Remove(filepath.Join(s.mediaRoot, filepath.FromSlash(path.Clean(rel))))
}

func cropCenterSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side <= 0 {
		return src
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

// resizeSquare scales a square image down to size; smaller images are kept.
func resizeSquare(src image.Image, size int) image.Image {
	b := src.Bounds()
	if b.Dx() <= size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func avatarHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
