package session

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/officemind/docagent/internal/api"
)

// ReadFileRef reads a file from disk once, caching the content in the ref
// so later uses never re-read it.
func ReadFileRef(path string) (FileRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRef{}, api.Validationf("无法读取文件 %s: %v", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return FileRef{}, api.Validationf("无法读取文件 %s: %v", path, err)
	}
	return FileRef{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Content:  content,
	}, nil
}
