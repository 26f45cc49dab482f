package model

type Seller struct {
	ID             int64          `json:"id"`
	BusinessName   string         `json:"business_name"`
	GSTIN          string         `json:"gstin"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Verified       bool           `json:"verified"`
	WebhookURL     string         `json:"webhook_url,omitempty"`
}

func (Seller) TableName() string { return "sellers" }
