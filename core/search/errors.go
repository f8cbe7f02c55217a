package search

import (
	"errors"
	"strings"
)

var ErrEmptyResponse = errors.New("empty response from search backend")

// AdapterError decorates a failure talking to the remote search
// backend with the operation and index it occurred in.
type AdapterError struct {
	Op    string
	Index string
	Code  string
	Err   error
}

func (err AdapterError) Error() string {
	var s strings.Builder
	s.WriteString("cloudsearch error: ")
	if err.Op != "" {
		s.WriteString(err.Op + ": ")
	}
	if err.Index != "" {
		s.WriteString("index '" + err.Index + "': ")
	}
	if err.Code != "" {
		s.WriteString("code '" + err.Code + "': ")
	}
	s.WriteString(err.Err.Error())
	return s.String()
}

func (err AdapterError) Unwrap() error {
	return err.Err
}
