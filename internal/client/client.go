// Package client provides an HTTP client for the species catalog REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/species-catalog/internal/chart"
	"github.com/evcraddock/species-catalog/internal/comment"
	"github.com/evcraddock/species-catalog/internal/profile"
	"github.com/evcraddock/species-catalog/internal/species"
)

// Client is an HTTP client for the species catalog API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized reports whether the server rejected the API key.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// ShowResponse is the response from GET /api/species/{id}.
type ShowResponse struct {
	Species  *species.Species          `json:"species"`
	Comments []comment.EnrichedComment `json:"comments"`
}

// ListOptions controls filtering for ListSpecies.
type ListOptions struct {
	Kingdom string
	Query   string
}

// SpeciesPatch holds the fields to change. Nil fields are left as they are.
type SpeciesPatch struct {
	ScientificName  *string `json:"scientific_name,omitempty"`
	CommonName      *string `json:"common_name,omitempty"`
	TotalPopulation *int64  `json:"total_population,omitempty"`
	Kingdom         *string `json:"kingdom,omitempty"`
	Description     *string `json:"description,omitempty"`
	Image           *string `json:"image,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SpeciesPatch) Empty() bool {
	return p == SpeciesPatch{}
}

// Me returns the profile the API key belongs to.
func (c *Client) Me() (*profile.Profile, error) {
	var p profile.Profile
	if err := c.get("/api/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSpecies returns species, optionally filtered.
func (c *Client) ListSpecies(opts ListOptions) ([]*species.Species, error) {
	path := "/api/species"
	params := url.Values{}
	if opts.Kingdom != "" {
		params.Set("kingdom", opts.Kingdom)
	}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var list []*species.Species
	if err := c.get(path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetSpecies returns a species with its comments.
func (c *Client) GetSpecies(id int64) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.get(fmt.Sprintf("/api/species/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddSpecies creates a species authored by the key's profile.
func (c *Client) AddSpecies(in species.Input) (*species.Species, error) {
	var sp species.Species
	if err := c.send("POST", "/api/species", in, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// UpdateSpecies applies a partial update.
func (c *Client) UpdateSpecies(id int64, patch SpeciesPatch) (*species.Species, error) {
	var sp species.Species
	if err := c.send("PATCH", fmt.Sprintf("/api/species/%d", id), patch, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// DeleteSpecies removes a species and its comments.
func (c *Client) DeleteSpecies(id int64) error {
	return c.doDelete(fmt.Sprintf("/api/species/%d", id))
}

// ListComments returns the comments of a species, newest first.
func (c *Client) ListComments(speciesID int64) ([]comment.EnrichedComment, error) {
	var comments []comment.EnrichedComment
	if err := c.get(fmt.Sprintf("/api/species/%d/comments", speciesID), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a species.
func (c *Client) AddComment(speciesID int64, content string) (*comment.EnrichedComment, error) {
	body := map[string]string{"content": content}
	var ec comment.EnrichedComment
	if err := c.send("POST", fmt.Sprintf("/api/species/%d/comments", speciesID), body, &ec); err != nil {
		return nil, err
	}
	return &ec, nil
}

// DeleteComment removes one of the caller's comments.
func (c *Client) DeleteComment(id int64) error {
	return c.doDelete(fmt.Sprintf("/api/comments/%d", id))
}

// Chat asks the species assistant a question.
func (c *Client) Chat(message string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.send("POST", "/api/chat", map[string]string{"message": message}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// SpeciesSpeed returns the animals shown on the speed chart, fastest first.
func (c *Client) SpeciesSpeed() ([]chart.Animal, error) {
	var animals []chart.Animal
	if err := c.get("/api/species-speed", &animals); err != nil {
		return nil, err
	}
	return animals, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result any) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// send performs a request with a JSON body and decodes the response.
func (c *Client) send(method, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(path string) error {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := "server error: " + http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
