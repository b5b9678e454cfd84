package sharerequests

// CreateShareRequest represents the request to create a share
type CreateShareRequest struct {
	Title *string `json:"title,omitempty" binding:"omitempty,max=256"`
}

type ListSharesQueryParams struct {
	IncludeRevoked bool `form:"include_revoked"`
}
