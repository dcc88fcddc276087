package user

type RegisterRequest struct {
	FID         int64  `json:"fid" form:"fid"`
	Username    string `json:"username" form:"username"`
	DisplayName string `json:"display_name,omitempty" form:"display_name"`
	PfpURL      string `json:"pfp_url,omitempty" form:"pfp_url"`
	SignerUUID  string `json:"signer_uuid" form:"signer_uuid"`
}
