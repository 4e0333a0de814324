package code

// Response shows the live upload code and how long it stays valid.
type Response struct {
	Code             string `json:"code"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}
