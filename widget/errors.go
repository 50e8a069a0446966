//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package widget

import (
	"errors"
	"fmt"
	"net/http"

	"trpc.group/trpc-go/trpc-nexus-agent/marketdata"
)

// ParamError reports an invalid widget parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// FetchError reports a failed data source call. When PassStatus is set and
// the source answered with an HTTP error, that status and body are relayed.
type FetchError struct {
	What       string
	Err        error
	PassStatus bool
}

func (e *FetchError) Error() string {
	var se *marketdata.StatusError
	if e.PassStatus && errors.As(e.Err, &se) {
		return fmt.Sprintf("Failed to fetch %s: %s", e.What, se.Body)
	}
	return fmt.Sprintf("Failed to fetch %s: %v", e.What, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPStatus maps a handler error to the status code of the response.
func HTTPStatus(err error) int {
	var pe *ParamError
	if errors.As(err, &pe) {
		return http.StatusBadRequest
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.PassStatus {
		var se *marketdata.StatusError
		if errors.As(fe.Err, &se) {
			return se.StatusCode
		}
	}
	return http.StatusInternalServerError
}
