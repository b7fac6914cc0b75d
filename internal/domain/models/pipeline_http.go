package models

// Requests for pipeline HTTP endpoints. Defined in domain for consistency and reuse.

type RunRequest struct {
	Symbols  []string `json:"symbols" validate:"omitempty,min=1,max=100,dive,alphanum,uppercase,min=1,max=10"`
	TweetCap int      `json:"tweet_cap" default:"100" validate:"gte=1,lte=1000"`
}

type FeaturesRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,alphanum,uppercase,min=1,max=10"`
	Limit  int    `query:"limit" json:"limit" default:"250" validate:"gte=1,lte=5000"`
}
