package util

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SniffImage 读取文件头判断是否为图片，读完后回到文件开头
func SniffImage(file io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(mimeType, MimeImage) {
		return mimeType, fmt.Errorf("invalid file type: %s", mimeType)
	}
	return mimeType, nil
}
