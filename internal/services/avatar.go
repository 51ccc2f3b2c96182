package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/codemate-vn/codemate-backend/internal/logger"
	"github.com/codemate-vn/codemate-backend/internal/types"
)

// AvatarService renders an initials avatar for local registrations; federated
// accounts keep the picture their provider supplies.
type AvatarService interface {
	GenerateInitialsAvatar(ctx context.Context, user *types.User) (string, error)
}

type avatarService struct {
	log      *logger.Logger
	mediaDir string
	baseURL  string
	palette  []color.NRGBA
	fontFace font.Face
}

var defaultPalette = []color.NRGBA{
	{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
	{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
	{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
	{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
	{R: 0xEC, G: 0x48, B: 0x99, A: 0xFF},
}

func NewAvatarService(log *logger.Logger, mediaDir, baseURL string) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("Env var AVATAR_FONT is empty")
	}
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(mediaDir, "avatars"), 0o755); err != nil {
		return nil, fmt.Errorf("could not create avatar media dir: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		mediaDir: mediaDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		palette:  defaultPalette,
		fontFace: face,
	}, nil
}

func (as *avatarService) GenerateInitialsAvatar(ctx context.Context, user *types.User) (string, error) {
	const size = 512

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	base := as.palette[colorIndexFor(user.ID.String(), len(as.palette))]
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(user.FullName, user.Email)
	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2
	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2), cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	rel := filepath.Join("avatars", user.ID.String()+".png")
	if err := os.WriteFile(filepath.Join(as.mediaDir, rel), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}
	return as.baseURL + "/media/" + filepath.ToSlash(rel), nil
}

// computeInitials prefers the display name; unnamed accounts fall back to the
// first letter of the email local part.
func computeInitials(fullName, email string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	switch {
	case len(parts) >= 2:
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[len(parts)-1]))
	case len(parts) == 1:
		return strings.ToUpper(firstRune(parts[0]))
	}
	if at := strings.Index(email, "@"); at > 0 {
		return strings.ToUpper(firstRune(email[:at]))
	}
	return "?"
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func colorIndexFor(seed string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return int(h.Sum32() % uint32(n))
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: points}), nil
}
