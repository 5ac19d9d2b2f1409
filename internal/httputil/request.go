package httputil

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BindData binds the JSON request body to data.
//
// An empty body and undecodable JSON are translated to client errors. Type
// mismatches are passed through untouched since their message already names
// the offending field.
func BindData(c *gin.Context, data any) error {
	err := c.ShouldBindJSON(&data)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return ErrRequestBodyEmpty
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return err
	}

	log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
	return ErrInvalidBody
}

// UUIDFromString parses s, mapping the empty string to uuid.Nil. Used for
// optional query parameters, gin cannot form-bind uuid.UUID itself.
func UUIDFromString(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return u, nil
}

// RequestHost reconstructs the external base URL of the request from the
// x-forwarded-* headers a reverse proxy sets. Without them the request host
// is used as-is with a plain http scheme.
func RequestHost(c *gin.Context) string {
	scheme := "http"
	if c.Request.Header.Get("x-forwarded-proto") == "https" {
		scheme = "https"
	}

	host := c.Request.Host
	var prefix string

	if forwarded := c.Request.Header.Get("x-forwarded-host"); forwarded != "" {
		host = forwarded

		prefix = c.Request.Header.Get("x-forwarded-prefix")
		if prefix == "" {
			prefix = "/api"
		}
	}

	return scheme + "://" + host + prefix
}

// RequestPathV1 returns the URL with the prefix for API v1.
func RequestPathV1(c *gin.Context) string {
	return RequestHost(c) + "/v1"
}
