// Package ytdlp shells out to the yt-dlp binary as the per-platform
// extraction function. The JSON payload it produces is passed through
// opaque; this layer only classifies failures.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/core/errcode"
	"github.com/vietddude/extractor/internal/extract"
)

// Extractor invokes a local yt-dlp binary.
type Extractor struct {
	binaryPath string
}

// New creates an extractor using yt-dlp from PATH, or the given override.
func New(binaryPath string) *Extractor {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &Extractor{binaryPath: binaryPath}
}

// Extract runs yt-dlp in metadata mode against url. When a credential is
// attached its secret is handed over as a Netscape cookie file.
func (e *Extractor) Extract(ctx context.Context, url string, opts extract.AttemptOpts) *domain.ExtractionResult {
	args := []string{"-J", "--no-warnings", "--no-playlist"}

	if opts.Credential != nil {
		cookieFile, err := writeCookieFile(opts.Credential.Secret)
		if err != nil {
			return domain.Failure(errcode.Unknown, "failed to stage cookie file: "+err.Error())
		}
		defer os.Remove(cookieFile)
		args = append(args, "--cookies", cookieFile)
	}

	args = append(args, url)
	cmd := exec.CommandContext(ctx, e.binaryPath, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return domain.Failure(errcode.Timeout, "")
		}
		return domain.Failure(errcode.Detect(msg), msg)
	}

	payload := bytes.TrimSpace(out.Bytes())
	if len(payload) == 0 {
		return domain.Failure(errcode.NoMedia, "")
	}

	return &domain.ExtractionResult{
		Success: true,
		Data:    json.RawMessage(payload),
	}
}

// Registry maps every supported platform onto this extractor.
func (e *Extractor) Registry() extract.Registry {
	reg := make(extract.Registry, len(domain.AllPlatforms))
	for _, p := range domain.AllPlatforms {
		reg[p] = e.Extract
	}
	return reg
}

func writeCookieFile(secret string) (string, error) {
	f, err := os.CreateTemp("", "extractor-cookies-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(secret); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
