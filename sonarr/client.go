package sonarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	starrsonarr "golift.io/starr/sonarr"
)

const apiPrefix = "/api/v3"

// Client talks to the Sonarr v3 API.
//
// The quality profile and quality definition endpoints are driven through a
// raw JSON client, because updates require whole-object replacement and
// error diagnostics need the raw payload. The custom format catalog and the
// connection test go through the starr client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	starr      *starrsonarr.Sonarr
	logger     zerolog.Logger
}

// NewClient creates a new Sonarr client and verifies the connection.
func NewClient(baseURL, apiKey string, logger zerolog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	// Ensure baseURL doesn't have trailing slash
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	starrClient := starrsonarr.New(starr.New(apiKey, baseURL, 30*time.Second))
	if err := starrClient.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, err)
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		starr:  starrClient,
		logger: logger,
	}, nil
}

// do performs an HTTP request against the v3 API and decodes the JSON
// response into result when result is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       apiPrefix + path,
			Body:       string(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// QualityProfiles retrieves all quality profiles.
func (c *Client) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := c.do(ctx, http.MethodGet, "/qualityprofile", nil, &profiles); err != nil {
		return nil, fmt.Errorf("failed to get quality profiles: %w", err)
	}
	c.logger.Debug().Int("count", len(profiles)).Msg("Retrieved quality profiles from Sonarr")
	return profiles, nil
}

// CreateQualityProfile creates a new quality profile.
func (c *Client) CreateQualityProfile(ctx context.Context, profile QualityProfile) error {
	if err := c.do(ctx, http.MethodPost, "/qualityprofile", profile, nil); err != nil {
		return fmt.Errorf("failed to create quality profile %q: %w", profile.Name, err)
	}
	return nil
}

// UpdateQualityProfile replaces an existing quality profile. Sonarr
// requires the full object, not a partial update.
func (c *Client) UpdateQualityProfile(ctx context.Context, profile QualityProfile) error {
	path := fmt.Sprintf("/qualityprofile/%d", profile.ID)
	if err := c.do(ctx, http.MethodPut, path, profile, nil); err != nil {
		return fmt.Errorf("failed to update quality profile %q: %w", profile.Name, err)
	}
	return nil
}

// DeleteQualityProfile removes a quality profile.
func (c *Client) DeleteQualityProfile(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/qualityprofile/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete quality profile %d: %w", id, err)
	}
	return nil
}

// QualityDefinitions retrieves all quality definitions, both decoded and as
// raw JSON. The raw form is kept so definition updates can resend the
// remote object with only the managed fields overridden.
func (c *Client) QualityDefinitions(ctx context.Context) ([]QualityDefinition, []json.RawMessage, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/qualitydefinition", nil, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to get quality definitions: %w", err)
	}

	definitions := make([]QualityDefinition, len(raw))
	for i, message := range raw {
		if err := json.Unmarshal(message, &definitions[i]); err != nil {
			return nil, nil, fmt.Errorf("failed to parse quality definition: %w", err)
		}
	}

	c.logger.Debug().Int("count", len(definitions)).Msg("Retrieved quality definitions from Sonarr")
	return definitions, raw, nil
}

// UpdateQualityDefinition updates a single quality definition in place.
// The body is the remote definition object merged with changed fields.
func (c *Client) UpdateQualityDefinition(ctx context.Context, id int64, body map[string]interface{}) error {
	path := fmt.Sprintf("/qualitydefinition/%d", id)
	if err := c.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("failed to update quality definition %d: %w", id, err)
	}
	return nil
}

// CustomFormats retrieves the custom format catalog in remote order.
func (c *Client) CustomFormats(ctx context.Context) ([]CustomFormat, error) {
	output, err := c.starr.GetCustomFormatsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get custom formats: %w", err)
	}

	formats := make([]CustomFormat, 0, len(output))
	for _, cf := range output {
		formats = append(formats, CustomFormat{ID: cf.ID, Name: cf.Name})
	}

	c.logger.Debug().Int("count", len(formats)).Msg("Retrieved custom formats from Sonarr")
	return formats, nil
}
