// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.ErrCodeInternal, "unexpected failure"},
		{"mask collision", errors.ErrCodeMaskCollision, "match ranges overlap"},
		{"invalid param", errors.ErrCodeInvalidParam, "threshold must lie in (0, 1]"},
		{"rate limit", errors.ErrCodeLabelRateLimited, "endpoint returned 429"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeMaskMissing, "no mask for %q", "Q42")
	require.NotNil(t, ae)
	assert.Equal(t, errors.ErrCodeMaskMissing, ae.Code)
	assert.Equal(t, `no mask for "Q42"`, ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithoutDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeLCSEmptyInput, "input string is empty")
	assert.Equal(t, "[LCS_002] input string is empty", ae.Error())
}

func TestError_FormatWithDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeStorageReadFailed, "load labels").
		WithDetail("file=resources/labels-nl.json")
	assert.Equal(t, "[STORE_001] load labels: file=resources/labels-nl.json", ae.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.ErrCodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("disk full")
	wrapped := errors.Wrap(root, errors.ErrCodeStorageWriteFailed, "save dataset")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeStorageWriteFailed, wrapped.Code)
	assert.ErrorIs(t, wrapped, root, "errors.Is must find the root cause")
	assert.Same(t, root, stderrors.Unwrap(wrapped))
}

func TestWrap_UnknownCodePreservesOriginalClassification(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeMaskBelowThreshold, "score 0.4 below 0.5")
	outer := errors.Wrap(inner, errors.CodeUnknown, "mask record 1337")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeMaskBelowThreshold, outer.Code,
		"wrapping with CodeUnknown must keep the inner code")
}

func TestWrap_ExplicitCodeOverridesInnerCode(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeLabelRateLimited, "429")
	outer := errors.Wrap(inner, errors.ErrCodeLabelQueryFailed, "gave up after retry")

	assert.Equal(t, errors.ErrCodeLabelQueryFailed, outer.Code,
		"explicit non-Unknown code must override the inner code")
}

func TestWrapf_FormatsMessage(t *testing.T) {
	t.Parallel()

	root := fmt.Errorf("connection refused")
	wrapped := errors.Wrapf(root, errors.ErrCodeLabelQueryFailed, "query part %d", 7)

	require.NotNil(t, wrapped)
	assert.Equal(t, "query part 7", wrapped.Message)
	assert.ErrorIs(t, wrapped, root)
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder methods
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := errors.New(errors.ErrCodeDatasetMalformedRecord, "record 12 is malformed")
	derived := base.WithDetail("uid missing")

	assert.Empty(t, base.Detail, "original must stay untouched")
	assert.Equal(t, "uid missing", derived.Detail)
	assert.Equal(t, base.Code, derived.Code)
}

func TestWithDetailf_FormatsDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeTreeInvalidState, "bad handle").
		WithDetailf("handle=%d states=%d", 17, 4)
	assert.Equal(t, "handle=17 states=4", ae.Detail)
}

func TestWithCause_AttachesCause(t *testing.T) {
	t.Parallel()

	root := stderrors.New("EOF")
	ae := errors.New(errors.ErrCodeStorageMalformedJSON, "decode labels").WithCause(root)

	assert.ErrorIs(t, ae, root)
}

func TestBuilders_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("y")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_FindsCodeAnywhereInChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeLCSNoSeparator, "both inputs use every pair")
	middle := fmt.Errorf("extract: %w", inner)
	outer := errors.Wrap(middle, errors.ErrCodeInternal, "mask record")

	assert.True(t, errors.IsCode(outer, errors.ErrCodeLCSNoSeparator))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeMaskCollision))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("labels for Q42")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"nil error", nil, errors.CodeOK},
		{"app error", errors.New(errors.ErrCodeConfigInvalid, "bad"), errors.ErrCodeConfigInvalid},
		{"wrapped app error", fmt.Errorf("ctx: %w", errors.Validation("v")), errors.ErrCodeValidation},
		{"foreign error", stderrors.New("plain"), errors.CodeUnknown},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errors.GetCode(tc.err))
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factories
// ─────────────────────────────────────────────────────────────────────────────

func TestConvenienceFactories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *errors.AppError
		want errors.ErrorCode
	}{
		{"NotFound", errors.NotFound("m"), errors.ErrCodeNotFound},
		{"InvalidParam", errors.InvalidParam("m"), errors.ErrCodeInvalidParam},
		{"Internal", errors.Internal("m"), errors.ErrCodeInternal},
		{"Validation", errors.Validation("m"), errors.ErrCodeValidation},
		{"Conflict", errors.Conflict("m"), errors.ErrCodeConflict},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.want, tc.err.Code)
			assert.Equal(t, "m", tc.err.Message)
		})
	}
}
