package core

import (
	"strconv"
)

// SuccessNoInfo marks a statement that succeeded without an affected-row count.
const SuccessNoInfo int64 = -2

// Record is one row keyed by field name. A nil value is SQL NULL.
type Record map[string]*string

// QueryRequest describes a paginated read.
type QueryRequest struct {
	EntityIdentifier   string
	SelectedFieldNames []string
	FilterExpression   string
	PageSize           int
	ContinuationToken  string
}

// Offset parses the continuation token as a row offset. An empty token is 0.
func (r QueryRequest) Offset() (int64, error) {
	if r.ContinuationToken == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(r.ContinuationToken, 10, 64)
	if err != nil || n < 0 {
		return 0, &InvalidInputError{Field: "continuationToken", Reason: "must be a non-negative integer"}
	}
	return n, nil
}

// NextContinuationToken returns the token for the page after one that
// returned n records, or "" when there is nothing left to read.
func NextContinuationToken(req QueryRequest, n int) string {
	if req.PageSize <= 0 || n < req.PageSize {
		return ""
	}
	offset, err := req.Offset()
	if err != nil {
		return ""
	}
	return strconv.FormatInt(offset+int64(n), 10)
}

// WriteRequest describes a batched write.
type WriteRequest struct {
	EntityIdentifier string
	Operation        WriteOperation
	Records          []string
	IDFieldNames     []string
}
