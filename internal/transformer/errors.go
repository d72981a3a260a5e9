// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a 2xx response whose body could not be parsed.
var ErrMalformedResponse = errors.New("malformed back-end response")

// ErrNoAudioData marks a synthesis response that carried no audio payload in
// any of its lines.
var ErrNoAudioData = errors.New("no audio data in synthesis response")

// BackendError is a non-2xx HTTP status or a domain error code inside an
// otherwise valid response. It is fatal to the single call that produced it,
// never to the session.
type BackendError struct {
	Provider string
	Status   int
	Code     string
	Message  string
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Message)
}

// AsBackendError unwraps err to a BackendError if one is in the chain.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
