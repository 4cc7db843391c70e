package utils

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetPathID parses a numeric path parameter. label names the entity in the
// error message, e.g. "Incident".
func GetPathID(ctx *gin.Context, param, label string) (uint, error) {
	raw := ctx.Param(param)

	if raw == "" {
		return 0, errors.New(label + " ID not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errors.New("Invalid " + label + " ID")
	}

	return uint(id), nil
}

// GetOptionalQueryID parses an optional numeric query parameter.
func GetOptionalQueryID(ctx *gin.Context, key string) (*uint, error) {
	raw := ctx.Query(key)

	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return nil, errors.New("Invalid " + key)
	}

	v := uint(id)
	return &v, nil
}

// GetQueryFloat parses a float query parameter, returning def when absent.
func GetQueryFloat(ctx *gin.Context, key string, def *float64) (float64, error) {
	raw := ctx.Query(key)

	if raw == "" {
		if def == nil {
			return 0, errors.New(key + " is required")
		}
		return *def, nil
	}

	v, err := strconv.ParseFloat(raw, 64)

	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(key + " must be a number")
	}

	return v, nil
}
