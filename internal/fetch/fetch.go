// Package fetch downloads videos by shelling out to yt-dlp. ffmpeg must be
// on PATH for format merging.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const bestMP4 = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

type Fetcher struct {
	Binary  string
	WorkDir string
}

func New(binary, workDir string) *Fetcher {
	if binary == "" {
		binary = "yt-dlp"
	}
	if workDir == "" {
		workDir = "."
	}
	return &Fetcher{Binary: binary, WorkDir: workDir}
}

// Check verifies the downloader and ffmpeg are reachable on PATH. Called
// once at worker startup so a misconfigured host fails fast.
func Check(binary string) error {
	if binary == "" {
		binary = "yt-dlp"
	}
	for _, bin := range []string{binary, "ffmpeg"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found on PATH: %w", bin, err)
		}
	}
	return nil
}

// args builds the yt-dlp invocation. The output template is keyed by task ID
// so concurrent workers never collide, and --print after_move:filepath lets
// us recover the final file name without guessing the extension.
func (f *Fetcher) args(videoURL, taskID string) []string {
	return []string{
		"-f", bestMP4,
		"-o", filepath.Join(f.WorkDir, taskID+".%(ext)s"),
		"--quiet",
		"--no-progress",
		"--no-simulate",
		"--print", "after_move:filepath",
		videoURL,
	}
}

// Fetch downloads the video and returns the path of the resulting file.
func (f *Fetcher) Fetch(ctx context.Context, videoURL, taskID string) (string, error) {
	cmd := exec.CommandContext(ctx, f.Binary, f.args(videoURL, taskID)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, lastLine(stderr.String()))
	}

	path := lastLine(stdout.String())
	if path == "" {
		return "", errors.New("yt-dlp reported no output file")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("downloaded file missing: %w", err)
	}
	return path, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
