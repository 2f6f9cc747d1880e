// Package seeds reads seed URL lists for crawl and spider jobs,
// generalized from the teacher's internal/utils.ReadURLsFromFile.
package seeds

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
)

// ReadFromFile loads one URL per line, skipping blank lines and lines
// starting with '#'. Invalid URLs are logged and skipped rather than
// failing the whole load.
func ReadFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := models.ValidateURL(line); err != nil {
			obslog.Warnf("skipping invalid seed URL (line %d): %s - %v", lineNum, line, err)
			continue
		}
		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("seed file contains no valid URLs")
	}

	obslog.Infof("loaded %d seed URLs from %s", len(urls), path)
	return urls, nil
}
