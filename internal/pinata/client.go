package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.pinata.cloud"

var ErrMissingJWT = errors.New("pinata JWT is not set")

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinata error: status %d, body: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	jwt        string
	httpClient *http.Client
}

// PinResponse is what both pinning endpoints return.
type PinResponse struct {
	IpfsHash    string `json:"IpfsHash"`
	PinSize     int64  `json:"PinSize"`
	Timestamp   string `json:"Timestamp"`
	IsDuplicate bool   `json:"isDuplicate,omitempty"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinJSONIn struct {
	PinataContent  interface{}    `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

func NewClient(baseURL, jwt string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		jwt:     jwt,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PinFile uploads data through pinFileToIPFS.
func (c *Client) PinFile(ctx context.Context, name, contentType string, data []byte) (*PinResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}

	meta, err := json.Marshal(pinataMetadata{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pin metadata: %w", err)
	}
	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, fmt.Errorf("failed to write pin metadata: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return c.post(ctx, "/pinning/pinFileToIPFS", writer.FormDataContentType(), &body)
}

// PinJSON uploads content through pinJSONToIPFS.
func (c *Client) PinJSON(ctx context.Context, name string, content interface{}) (*PinResponse, error) {
	jsonData, err := json.Marshal(pinJSONIn{
		PinataContent:  content,
		PinataMetadata: pinataMetadata{Name: name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.post(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(jsonData))
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*PinResponse, error) {
	if c.jwt == "" {
		return nil, ErrMissingJWT
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result PinResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.IpfsHash == "" {
		return nil, errors.New("pinata response has no IpfsHash")
	}

	return &result, nil
}
