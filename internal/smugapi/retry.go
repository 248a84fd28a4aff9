// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smugapi

import (
	"context"
	"net/http"
	"time"

	backoff "github.com/odeke-em/exponential-backoff"
)

// withRetry runs fn, retrying on network failures and 429/5xx the way
// spec.md §4.2 requires: base 1s, factor 2, max 60s, at least 5 retries.
// fn reports whether its error is retryable; the teacher's own
// `retryableErrorCheck` (src/misc.go) is the direct ancestor of that
// boolean, generalized here from Drive's googleapi.Error to this
// project's own Error/ErrorStatus taxonomy.
func withRetry(ctx context.Context, maxRetries int, fn func() (retryable bool, err error)) error {
	if maxRetries < 5 {
		maxRetries = 5
	}

	bo := &backoff.Backoff{
		Min:    1 * time.Second,
		Max:    60 * time.Second,
		Factor: 2,
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable || attempt == maxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return canceledErr(ctx.Err())
		case <-time.After(bo.Duration()):
		}
	}

	return lastErr
}

func networkErr(err error) error {
	return makeErrorWithStatus("network", err, StatusNetwork)
}

func canceledErr(err error) error {
	return makeErrorWithStatus("canceled", err, StatusCanceled)
}

// classifyStatus mirrors the teacher's retryableErrorCheck (src/misc.go)
// status-code switch, generalized from googleapi.Error to a plain HTTP
// status and mapped onto this project's ErrorStatus kinds. kind == 0
// means the response was a success and should be decoded normally.
func classifyStatus(statusCode int) (kind ErrorStatus, retryable bool) {
	if statusCode >= 200 && statusCode <= 299 {
		return 0, false
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return StatusRateLimited, true
	case statusCode >= 500 && statusCode <= 599:
		return StatusNetwork, true
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return StatusAuth, false
	case statusCode == http.StatusNotFound:
		return StatusNotFound, false
	case statusCode == http.StatusRequestEntityTooLarge:
		return StatusPayloadTooLarge, false
	case statusCode == http.StatusConflict:
		return StatusNameCollision, false
	default:
		return StatusGeneric, false
	}
}
