package domain

// Currency is only used to compose descriptions.
type Currency struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
}
