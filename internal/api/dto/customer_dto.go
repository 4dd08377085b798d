package dto

// CustomerUpdateRequest payload for admin edits of a customer account.
type CustomerUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// CustomerListResponse wraps a page of customer accounts.
type CustomerListResponse struct {
	Customers []UserResponse `json:"customers"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
}

// UploadResponse describes a staged upload awaiting attachment to a
// product.
type UploadResponse struct {
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
}
