package analyze

import "errors"

// Sentinel errors for analysis operations.
var (
	// ErrInvalidURL indicates that a URL failed validation before fetching.
	ErrInvalidURL = errors.New("invalid article URL")

	// ErrPrivateIP indicates that a URL resolves to a private or loopback
	// address and was blocked.
	ErrPrivateIP = errors.New("URL resolves to private IP")

	// ErrTimeout indicates that a content fetch or model call exceeded its
	// per-call deadline.
	ErrTimeout = errors.New("upstream call timed out")

	// ErrBodyTooLarge indicates that a response exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTooManyRedirects indicates that a fetch followed too many redirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrExtractFailed indicates that no readable article content could be
	// extracted from the fetched page.
	ErrExtractFailed = errors.New("content extraction failed")

	// ErrNotArticle indicates that the page yielded text below the minimum
	// word count and is treated as a non-article page.
	ErrNotArticle = errors.New("page is not an article")

	// ErrEmptyVerdict indicates that the classifier responded successfully
	// but produced no usable verdict.
	ErrEmptyVerdict = errors.New("classifier returned empty result")
)
