package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	rawGithubHost = "raw.githubusercontent.com"
	githubHost    = "github.com"
)

// DocURL returns the browsable page of a skill document: raw GitHub links
// become blob links, anything else is returned as is. An empty url gives "#".
func DocURL(doc string) string {
	if doc == "" {
		return "#"
	}
	if strings.Contains(doc, rawGithubHost) {
		doc = strings.Replace(doc, rawGithubHost, githubHost, 1)
		return strings.Replace(doc, "refs/heads/", "blob/", 1)
	}
	return doc
}

// RawDocURL returns the URL the document content can be fetched from.
func RawDocURL(doc string) string {
	if strings.Contains(doc, rawGithubHost) {
		return doc
	}
	if strings.Contains(doc, githubHost) && strings.Contains(doc, "/blob/") {
		doc = strings.Replace(doc, githubHost, rawGithubHost, 1)
		return strings.Replace(doc, "/blob/", "/", 1)
	}
	return doc
}

// DockerHubURL links an image, without its tag, to Docker Hub.
func DockerHubURL(image string) string {
	if image == "" {
		return "#"
	}
	name, _, _ := strings.Cut(image, ":")
	return "https://hub.docker.com/r/" + name
}

// ShortID abbreviates an object id or address as 0x1234...abcd.
func ShortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:6] + "..." + id[len(id)-4:]
}

// maxDocSize bounds the size of a fetched document.
const maxDocSize = 1 << 20

// FetchDoc downloads the markdown of a skill document.
func FetchDoc(ctx context.Context, client *http.Client, doc string) (string, error) {
	if doc == "" {
		return "", fmt.Errorf("no document")
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RawDocURL(doc), nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch document: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocSize))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(body), nil
}
