package domain

import "context"

// PublishOptions carries the optional parts of an outbound cast.
type PublishOptions struct {
	Embeds    []string
	ChannelID string
	Parent    string
}

// PublishResult is the gateway's success/failure contract. A transport error,
// a timeout and an API rejection all surface the same way: Success false with
// a human-readable Error.
type PublishResult struct {
	Success  bool
	CastHash string
	Error    string
}

// PublishGateway sends one cast to the external network.
type PublishGateway interface {
	PublishCast(ctx context.Context, signerUUID, text string, opts PublishOptions) PublishResult
}

// UserProfile is the subset of a Farcaster profile used at registration.
type UserProfile struct {
	FID         int64
	Username    string
	DisplayName string
	PfpURL      string
}

// ProfileGateway resolves public profile data for a FID.
type ProfileGateway interface {
	LookupUserByFID(ctx context.Context, fid int64) (UserProfile, error)
}
