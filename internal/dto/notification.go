package dto

// BroadcastResult counts the outcome of one fan-out.
type BroadcastResult struct {
	Total       int     `json:"total"`
	Sent        int     `json:"sent"`
	Failed      int     `json:"failed"`
	Deactivated []int64 `json:"deactivated,omitempty"`
}
