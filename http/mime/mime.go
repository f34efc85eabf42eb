package mime

import "strings"

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	CSS            MIME = "text/css"
	XML            MIME = "text/xml"
	JSON           MIME = "application/json"
	YAML           MIME = "application/yaml"
	PDF            MIME = "application/pdf"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
	ZIP            MIME = "application/zip"
	GZIP           MIME = "application/gzip"
	GIF            MIME = "image/gif"
	JPEG           MIME = "image/jpeg"
	PNG            MIME = "image/png"
	SVG            MIME = "image/svg+xml"
	ICO            MIME = "image/vnd.microsoft.icon"
	WEBP           MIME = "image/webp"
	JS             MIME = "text/javascript"
	WASM           MIME = "application/wasm"
)

// Extension maps file extensions (with the leading dot) to their MIMEs.
var Extension = map[string]MIME{
	".css":  CSS,
	".gif":  GIF,
	".gz":   GZIP,
	".htm":  HTML,
	".html": HTML,
	".ico":  ICO,
	".jpeg": JPEG,
	".jpg":  JPEG,
	".js":   JS,
	".json": JSON,
	".mjs":  JS,
	".pdf":  PDF,
	".png":  PNG,
	".svg":  SVG,
	".txt":  Plain,
	".wasm": WASM,
	".webp": WEBP,
	".xml":  XML,
	".yaml": YAML,
	".zip":  ZIP,
}

// ByExtension guesses the MIME of a file by its path. Unknown and missing
// extensions fall back to application/octet-stream.
func ByExtension(path string) MIME {
	if dot := strings.LastIndexByte(path, '.'); dot != -1 {
		if m, found := Extension[strings.ToLower(path[dot:])]; found {
			return m
		}
	}

	return OctetStream
}

// Complies returns whether two MIMEs are compatible. Any parameters of the
// second one are ignored, and empty MIME is considered compatible with
// any other.
func Complies(mime MIME, with string) bool {
	if semicolon := strings.IndexByte(with, ';'); semicolon != -1 {
		with = with[:semicolon]
	}

	with = strings.TrimSpace(with)

	return len(with) == 0 || strings.EqualFold(with, mime)
}
