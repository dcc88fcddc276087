package farcaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/castline/castline/scheduling/domain"
	"github.com/sirupsen/logrus"
)

const (
	httpTimeout    = 15 * time.Second
	defaultBaseURL = "https://api.neynar.com"
)

var httpClient = &http.Client{Timeout: httpTimeout}

// Client talks to the Neynar v2 API. It is the publish gateway: opaque beyond
// its success/failure contract, may be slow, may fail transiently.
type Client struct {
	apiKey  string
	baseURL string
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type castEmbed struct {
	URL string `json:"url"`
}

type publishCastRequest struct {
	SignerUUID string      `json:"signer_uuid"`
	Text       string      `json:"text"`
	Embeds     []castEmbed `json:"embeds,omitempty"`
	ChannelID  string      `json:"channel_id,omitempty"`
	Parent     string      `json:"parent,omitempty"`
}

type publishCastResponse struct {
	Cast struct {
		Hash string `json:"hash"`
	} `json:"cast"`
	Message string `json:"message"`
}

// PublishCast sends one cast on behalf of the signer. Transport errors,
// timeouts and API rejections all come back as an unsuccessful result; the
// caller decides how to record them.
func (c *Client) PublishCast(ctx context.Context, signerUUID, text string, opts domain.PublishOptions) domain.PublishResult {
	payload := publishCastRequest{
		SignerUUID: signerUUID,
		Text:       text,
		ChannelID:  opts.ChannelID,
		Parent:     opts.Parent,
	}
	for _, url := range opts.Embeds {
		payload.Embeds = append(payload.Embeds, castEmbed{URL: url})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PublishResult{Error: fmt.Sprintf("encode cast payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/farcaster/cast", bytes.NewReader(body))
	if err != nil {
		return domain.PublishResult{Error: fmt.Sprintf("build publish request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("[FARCASTER] Publish request failed")
		return domain.PublishResult{Error: fmt.Sprintf("publish request: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.PublishResult{Error: fmt.Sprintf("read publish response: %v", err)}
	}

	var parsed publishCastResponse
	if err := json.Unmarshal(data, &parsed); err != nil && resp.StatusCode < 300 {
		return domain.PublishResult{Error: fmt.Sprintf("decode publish response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return domain.PublishResult{Error: fmt.Sprintf("neynar returned %d: %s", resp.StatusCode, msg)}
	}

	if parsed.Cast.Hash == "" {
		return domain.PublishResult{Error: "neynar response missing cast hash"}
	}

	return domain.PublishResult{Success: true, CastHash: parsed.Cast.Hash}
}

type bulkUsersResponse struct {
	Users []struct {
		FID         int64  `json:"fid"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		PfpURL      string `json:"pfp_url"`
	} `json:"users"`
}

// LookupUserByFID fetches a user's public profile, used to enrich
// registrations that only carry a FID and signer.
func (c *Client) LookupUserByFID(ctx context.Context, fid int64) (domain.UserProfile, error) {
	url := fmt.Sprintf("%s/v2/farcaster/user/bulk?fids=%d", c.baseURL, fid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.UserProfile{}, fmt.Errorf("neynar returned %d for fid %d", resp.StatusCode, fid)
	}

	var parsed bulkUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.UserProfile{}, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(parsed.Users) == 0 {
		return domain.UserProfile{}, fmt.Errorf("no user found for fid %d", fid)
	}

	u := parsed.Users[0]
	return domain.UserProfile{
		FID:         u.FID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		PfpURL:      u.PfpURL,
	}, nil
}
