// Package quota fetches recent codex invocation records from the upstream
// quota endpoint.
package quota

// Record is one upstream invocation exactly as the quota endpoint reports
// it. Field names match the camelCase wire shape so a re-marshaled Record
// reproduces the upstream JSON.
type Record struct {
	RequestID        string  `json:"requestId"`
	RequestTime      string  `json:"requestTime"`
	Model            string  `json:"model"`
	InputTokens      int64   `json:"inputTokens"`
	OutputTokens     int64   `json:"outputTokens"`
	CacheInputTokens int64   `json:"cacheInputTokens"`
	ReasoningTokens  int64   `json:"reasoningTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	Cost             float64 `json:"cost"`
	Status           string  `json:"status"`
	ErrorMessage     string  `json:"errorMessage"`
}

// response is the upstream envelope. Every level below the top is optional;
// a missing data or data.codex means "no records". The code field is decoded
// but not acted on.
type response struct {
	Code int        `json:"code"`
	Data *quotaData `json:"data"`
}

type quotaData struct {
	Codex *serviceQuota `json:"codex"`
}

type serviceQuota struct {
	RecentRecords []Record `json:"recentRecords"`
}
