package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Resolver превращает адрес страницы трансляции в прямой адрес видеопотока.
type Resolver struct {
	YtDlpPath string
}

// Resolve возвращает прямой адрес; не-YouTube источники возвращаются как есть.
func (r Resolver) Resolve(ctx context.Context, source string) (string, error) {
	if !isYouTube(source) || r.YtDlpPath == "" {
		return source, nil
	}

	cmd := exec.CommandContext(ctx, r.YtDlpPath, "-g", "-f", "best", source)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp error: %w, output: %s", err, strings.TrimSpace(stderr.String()))
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("yt-dlp returned no stream url for %s", source)
}

func isYouTube(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be"
}

// isLocalFile сообщает, что источник является файлом, а не сетевым потоком.
func isLocalFile(source string) bool {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		return true
	}
	return len(u.Scheme) == 1 // диск Windows: C:\...
}
