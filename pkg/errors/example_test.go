package errors_test

import (
	"encoding/json"
	"fmt"

	"github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

// Example demonstrates normalizing an encoded host error payload.
func ExampleParseHostError() {
	hostErr := errors.ParseHostError(json.RawMessage(`"{\"type\":\"t\",\"code\":\"C\",\"message\":\"m\"}"`))
	fmt.Println(hostErr.Type, hostErr.Code, hostErr.Message)
	// Output:
	// t C m
}

// Example demonstrates the fallback for an undecodable host error payload.
func ExampleParseHostError_malformed() {
	hostErr := errors.ParseHostError(json.RawMessage(`"not json"`))
	fmt.Println(hostErr.Type, hostErr.Code, hostErr.Message)
	// Output:
	// unknown UNKNOWN_ERROR not json
}

// Example demonstrates checking a missing host channel.
func ExampleIsTransportUnavailable() {
	err := errors.Wrap(errors.NewTransportUnavailableError("getUserId"), "request failed")
	fmt.Println(err.Error())
	fmt.Println("Retry:", errors.ShouldRetry(err))
	// Output:
	// request failed: host channel not found: getUserId
	// Retry: true
}
