package request

type RespondApproval struct {
	ResponderID string `json:"responder_id" validate:"required"`
	Decision    string `json:"decision" validate:"required,oneof=approved rejected"`
	Response    string `json:"response"`
}

type BulkRespondApprovals struct {
	ApprovalIDs []string `json:"approval_ids" validate:"required,min=1"`
	ResponderID string   `json:"responder_id" validate:"required"`
	Decision    string   `json:"decision" validate:"required,oneof=approved rejected"`
	Response    string   `json:"response"`
}

type DelegateApproval struct {
	FromUserID string `json:"from_user_id" validate:"required"`
	ToUserID   string `json:"to_user_id" validate:"required"`
	Reason     string `json:"reason"`
}
