package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapFormatsContext(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "Registry", "Register", "durable append")

	require.Error(t, err)
	assert.Equal(t, "Registry.Register: durable append failed: boom", err.Error())
	assert.True(t, stderrors.Is(err, base))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Factory", "deploy", "anything"))
	assert.NoError(t, WrapInvalid(nil, "Factory", "deploy", "anything"))
	assert.NoError(t, WrapTransient(nil, "Factory", "deploy", "anything"))
	assert.NoError(t, WrapFatal(nil, "Factory", "deploy", "anything"))
}

func TestClassifiedWrappersPreserveSentinels(t *testing.T) {
	err := WrapInvalid(ErrTemplateNotSet, "Factory", "DeployStandardToken", "template lookup")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrTemplateNotSet))
	assert.True(t, IsInvalid(err))
	assert.False(t, IsTransient(err))
	assert.False(t, IsFatal(err))

	var ce *ClassifiedError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, ErrorInvalid, ce.Class)
	assert.Equal(t, "Factory", ce.Component)
	assert.Equal(t, "DeployStandardToken", ce.Operation)
}

func TestTaxonomyClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"unauthorized", ErrUnauthorized, ErrorInvalid},
		{"reentrant call", ErrReentrantCall, ErrorInvalid},
		{"invalid owner", ErrInvalidOwner, ErrorInvalid},
		{"invalid template", ErrInvalidTemplate, ErrorInvalid},
		{"unknown product type", ErrUnknownProductType, ErrorInvalid},
		{"invalid instance", ErrInvalidInstance, ErrorInvalid},
		{"index out of range", ErrIndexOutOfRange, ErrorInvalid},
		{"template not set", ErrTemplateNotSet, ErrorInvalid},
		{"initialization failed", ErrInitializationFailed, ErrorInvalid},
		{"already registered", ErrAlreadyRegistered, ErrorInvalid},
		{"not registered", ErrNotRegistered, ErrorInvalid},
		{"invalid config", ErrInvalidConfig, ErrorFatal},
		{"missing config", ErrMissingConfig, ErrorFatal},
		{"no connection", ErrNoConnection, ErrorTransient},
		{"storage unavailable", ErrStorageUnavailable, ErrorTransient},
		{"context deadline", context.DeadlineExceeded, ErrorTransient},
		{"unknown error", stderrors.New("something else"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", WrapTransient(ErrStorageUnavailable, "Store", "AppendRecord", "kv create"))

	assert.True(t, IsTransient(err))
	assert.Equal(t, ErrorTransient, Classify(err))
}

func TestTransientPatternMatching(t *testing.T) {
	assert.True(t, IsTransient(stderrors.New("nats: connection closed")))
	assert.True(t, IsTransient(stderrors.New("request timeout")))
	assert.False(t, IsTransient(stderrors.New("no template registered")))
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}
