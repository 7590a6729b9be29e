package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDuration("5m", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("garbage", time.Second))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 42, ParseValue("42"))
	assert.Equal(t, 10.5, ParseValue(" 10.5 "))
	assert.Equal(t, "USD", ParseValue("USD"))
	assert.Equal(t, "", ParseValue(""))
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, 42.0, Numeric(42))
	assert.Equal(t, 42.0, Numeric(int64(42)))
	assert.Equal(t, 10.5, Numeric(10.5))
	assert.Equal(t, 0.0, Numeric("not a number"))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric(42))
	assert.True(t, IsNumeric(10.5))
	assert.False(t, IsNumeric("42"))
	assert.False(t, IsNumeric(nil))
}
