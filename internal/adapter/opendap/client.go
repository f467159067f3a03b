package opendap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client reads DAP2 metadata and ASCII-encoded hyperslabs from an OPeNDAP
// server such as THREDDS.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an OPeNDAP client around an HTTP client.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{httpClient: httpClient, logger: logger}
}

// DDS fetches and parses the dataset descriptor structure.
func (c *Client) DDS(ctx context.Context, datasetURL string) (DDS, error) {
	body, err := c.get(ctx, datasetURL+".dds")
	if err != nil {
		return DDS{}, err
	}
	return ParseDDS(body)
}

// DAS fetches and parses the dataset attribute structure.
func (c *Client) DAS(ctx context.Context, datasetURL string) (DAS, error) {
	body, err := c.get(ctx, datasetURL+".das")
	if err != nil {
		return DAS{}, err
	}
	return ParseDAS(body), nil
}

// ASCII fetches the arrays selected by a DAP2 constraint expression, e.g.
// "tmax[127:1:127][0:1:359][0:1:719]". Arrays are keyed by their short name.
func (c *Client) ASCII(ctx context.Context, datasetURL, constraint string) (map[string]Array, error) {
	body, err := c.get(ctx, datasetURL+".ascii?"+escapeConstraint(constraint))
	if err != nil {
		return nil, err
	}
	return ParseASCII(body)
}

func (c *Client) get(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug("opendap request", "url", fullURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("opendap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("opendap error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read opendap response: %w", err)
	}
	return string(body), nil
}

// escapeConstraint percent-encodes brackets, which THREDDS rejects raw.
func escapeConstraint(ce string) string {
	return strings.NewReplacer("[", "%5B", "]", "%5D", " ", "%20").Replace(ce)
}
