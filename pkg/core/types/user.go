package types

// User is the authenticated account owner of the session list.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	PlanType string `json:"plan_type,omitempty"`
}
