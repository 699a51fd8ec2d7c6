package domain

// StaffRole describes one configured staff role in the guild hierarchy.
// The ordered list of roles loaded at startup defines who counts as staff;
// Rank is a total order where a higher value means more authority.
type StaffRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}
