package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"swarmshare/p2p-share/pkg/logger"
)

const requestTimeout = 5 * time.Second

// Client talks to the tracker over HTTP+JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a tracker client for the given base URL, e.g.
// "http://127.0.0.1:5000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Register announces which chunks of a file this peer serves. The
// tracker treats it as idempotent per (file_hash, ip, port).
func (c *Client) Register(req RegisterRequest) (*RegisterResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode register request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach tracker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracker registration failed: %s", decodeError(resp))
	}

	var out RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode register response: %w", err)
	}

	logger.Sugar.Infof("[Directory] registered: file=%s peers=%d", out.FileHash, out.PeersCount)
	return &out, nil
}

// Lookup finds a file by name and returns its descriptor fields plus the
// peers currently advertising chunks of it.
func (c *Client) Lookup(fileName string) (*LookupResponse, error) {
	u := fmt.Sprintf("%s/lookup?file_name=%s", c.baseURL, url.QueryEscape(fileName))

	resp, err := c.http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("failed to reach tracker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracker lookup failed: %s", decodeError(resp))
	}

	var out LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	return &out, nil
}

func decodeError(resp *http.Response) string {
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		return resp.Status
	}
	return e.Error
}

func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
