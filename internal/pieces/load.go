package pieces

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/park285/fenshot/internal/fen"
	"go.uber.org/zap"
)

var bitmapExts = []string{".png", ".jpg", ".jpeg"}

// LoadDir reads a piece set from dir. Files are named by AssetName (wK.svg, bQ.png);
// black pieces may also use the lowercase FEN letter (bq.png). Missing or undecodable
// files leave that piece absent.
func LoadDir(dir string, logger *zap.Logger) (Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return LoadFS(os.DirFS(dir), logger)
}

// LoadFS is LoadDir over an fs.FS.
func LoadFS(fsys fs.FS, logger *zap.Logger) (Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := fs.ReadDir(fsys, "."); err != nil {
		return nil, fmt.Errorf("read piece dir: %w", err)
	}
	set := make(Set, len(fen.Codes))
	for _, code := range fen.Codes {
		img, name, err := loadPiece(fsys, assetNames(code)...)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("piece_missing", zap.String("piece", code.String()))
		case err != nil:
			logger.Warn("piece_unreadable", zap.String("file", name), zap.Error(err))
		default:
			set[code] = img
		}
	}
	return set, nil
}

// assetNames lists the accepted base names for p, preferred first.
func assetNames(p fen.Piece) []string {
	names := []string{AssetName(p)}
	if !p.White() {
		names = append(names, "b"+p.String())
	}
	return names
}

func loadPiece(fsys fs.FS, bases ...string) (Image, string, error) {
	for _, base := range bases {
		img, name, err := loadPieceFile(fsys, base)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return img, name, err
	}
	return nil, bases[0], fs.ErrNotExist
}

func loadPieceFile(fsys fs.FS, base string) (Image, string, error) {
	name := base + ".svg"
	if data, err := fs.ReadFile(fsys, name); err == nil {
		img, perr := NewSVG(data)
		return img, name, perr
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, name, err
	}
	for _, ext := range bitmapExts {
		name = base + ext
		f, err := fsys.Open(filepath.ToSlash(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, name, err
		}
		img, derr := DecodeBitmap(f)
		_ = f.Close()
		return img, name, derr
	}
	return nil, base, fs.ErrNotExist
}
