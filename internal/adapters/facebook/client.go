package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrTokenRejected means the Graph API answered but did not accept the token.
	ErrTokenRejected = errors.New("facebook: token rejected")
	// ErrUnavailable means the Graph API could not be reached or returned an
	// unexpected body.
	ErrUnavailable = errors.New("facebook: graph api unavailable")
)

type Client interface {
	// InspectToken calls the debug_token endpoint with the app credentials.
	InspectToken(ctx context.Context, accessToken string) error
	// FetchProfile loads the profile fields of the token's owner.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

type Profile struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Picture Picture `json:"picture"`
}

type Picture struct {
	Data PictureData `json:"data"`
}

type PictureData struct {
	URL string `json:"url"`
}

type inspection struct {
	Data inspectionData `json:"data"`
}

type inspectionData struct {
	AppID   string `json:"app_id"`
	UserID  string `json:"user_id"`
	IsValid bool   `json:"is_valid"`
}

type httpClient struct {
	baseURL   string
	appID     string
	appSecret string
	client    *http.Client
}

func NewHTTPClient(baseURL, appID, appSecret string, timeout time.Duration) Client {
	return &httpClient{
		baseURL:   baseURL,
		appID:     appID,
		appSecret: appSecret,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) InspectToken(ctx context.Context, accessToken string) error {
	q := url.Values{}
	q.Set("input_token", accessToken)
	q.Set("access_token", c.appID+"|"+c.appSecret)

	var resp inspection
	status, err := c.get(ctx, "/debug_token", q, &resp)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !resp.Data.IsValid {
		return ErrTokenRejected
	}
	return nil
}

func (c *httpClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("fields", "name,email,picture.width(100).height(100)")

	var profile Profile
	status, err := c.get(ctx, "/me", q, &profile)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrTokenRejected
	}
	if profile.ID == "" {
		return nil, ErrUnavailable
	}
	return &profile, nil
}

// get performs a single request: verification outcomes must surface
// immediately, so unlike other outbound adapters there is no retry here.
func (c *httpClient) get(ctx context.Context, path string, q url.Values, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode()), nil)
	if err != nil {
		return 0, ErrUnavailable
	}
	res, err := c.client.Do(req)
	if err != nil {
		return 0, ErrUnavailable
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusInternalServerError {
		return res.StatusCode, ErrUnavailable
	}
	if res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, ErrUnavailable
		}
	}
	return res.StatusCode, nil
}
