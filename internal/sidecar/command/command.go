// Package command builds the JSON envelopes written to the worker's stdin.
package command

import (
	"encoding/json"

	"github.com/lambda-feedback/watchdeck/util"
)

type Type string

const (
	AddDirectory    Type = "add_directory"
	RemoveDirectory Type = "remove_directory"
	GetDirectories  Type = "get_directories"
	Shutdown        Type = "shutdown"
)

// Envelope is one command line. The payload shape is fixed per type
// and validated by the worker.
type Envelope struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

type AddDirectoryPayload struct {
	Path string `json:"path"`
}

type RemoveDirectoryPayload struct {
	ID string `json:"id"`
}

// Encode returns the canonical single-line form of env. Newlines and
// other control characters inside strings are escaped, and invalid
// UTF-8 is replaced with U+FFFD, so the result never spans lines.
func Encode(env Envelope) (string, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func EncodeAddDirectory(path string) string {
	return mustEncode(Envelope{
		Type:    AddDirectory,
		Payload: AddDirectoryPayload{Path: path},
	})
}

func EncodeRemoveDirectory(id string) string {
	return mustEncode(Envelope{
		Type:    RemoveDirectory,
		Payload: RemoveDirectoryPayload{ID: id},
	})
}

func EncodeListDirectories() string {
	return mustEncode(Envelope{Type: GetDirectories})
}

func EncodeShutdown() string {
	return mustEncode(Envelope{Type: Shutdown})
}

// the fixed payload types above cannot fail to marshal
func mustEncode(env Envelope) string {
	return util.Must(Encode(env))
}
