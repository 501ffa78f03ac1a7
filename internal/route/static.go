package route

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
)

const indexFile = "index.html"

// Assets locates theme folders for the static handler.
type Assets interface {
	ThemeFolder(name string) (string, bool)
	ActiveFolder() string
}

// Static serves /<theme>/<file> from that theme's folder, and any other
// path from the active theme's folder.
func Static(assets Assets) Handler {
	return func(req *Request) (*Response, error) {
		clean := strings.TrimPrefix(path.Clean("/"+req.Path), "/")

		first, rest, _ := strings.Cut(clean, "/")
		if first != "" {
			if folder, ok := assets.ThemeFolder(first); ok {
				return serveFrom(folder, rest)
			}
		}
		return serveFrom(assets.ActiveFolder(), clean)
	}
}

func serveFrom(root, rel string) (*Response, error) {
	if rel == "" {
		rel = indexFile
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, full) {
		return nil, apperrors.NotFoundError("file not found").WithField("file", rel)
	}

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, indexFile)
	}
	return File(full)
}

func within(root, full string) bool {
	rel, err := filepath.Rel(root, full)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// File serves a file from disk with a content type guessed from its
// extension, or sniffed from its content when the extension is unknown.
func File(name string) (*Response, error) {
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NotFoundError("file not found").WithField("file", filepath.Base(name))
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to read file", err).WithField("file", filepath.Base(name))
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return &Response{Status: http.StatusOK, ContentType: contentType, Body: data}, nil
}
