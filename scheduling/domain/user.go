package domain

import "time"

// User is a registered Farcaster account. SignerUUID is the Neynar signer
// credential used to publish on the user's behalf.
type User struct {
	ID          string    `json:"id"`
	FID         int64     `json:"fid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	PfpURL      string    `json:"pfp_url,omitempty"`
	SignerUUID  string    `json:"signer_uuid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
