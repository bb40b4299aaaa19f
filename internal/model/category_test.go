package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"buffer-overflow", BufferOverflow},
		{"Use-After-Free", UseAfterFree},
		{" integer-overflow ", IntegerOverflow},
		{"0", BufferOverflow},
		{"(3)", UseAfterFree},
		{"5", DivisionByZero},
		{"8", UseOfUninit},
		{"9", MemoryLeak},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCategory_Invalid(t *testing.T) {
	for _, in := range []string{"", "stack-smash", "10", "-1", "buffer-overflow,use-after-free"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCategory(in)
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "ub", cfgErr.Key)
		})
	}
}

func TestCategory_InstrumentationNeeds(t *testing.T) {
	assert.Equal(t, "int", IntegerOverflow.InstrumentMode())
	assert.Equal(t, "zero", DivisionByZero.InstrumentMode())
	assert.Equal(t, "mem", OutOfBound.InstrumentMode())
	assert.Equal(t, "init", UseOfUninit.InstrumentMode())
	assert.Equal(t, "ptr", MemoryLeak.InstrumentMode())

	assert.True(t, DoubleFree.UsesHeapRewrite())
	assert.False(t, NullPointerDereference.UsesHeapRewrite())
	assert.True(t, DivisionByZero.UsesIntegerRewrite())
	assert.True(t, BufferOverflow.UsesIndexRewrite())
	assert.False(t, UseAfterScope.UsesIndexRewrite())
}

func TestRejection_Error(t *testing.T) {
	err := Reject(RejectNoBoundary, "op %s", "*")
	assert.Equal(t, "rejected: NoBoundary: op *", err.Error())
	assert.Equal(t, "rejected: NoUse", (&Rejection{Reason: RejectNoUse}).Error())
}

func TestToolFailure_Error(t *testing.T) {
	assert.Equal(t, "cc timed out", (&ToolFailure{Tool: "cc", TimedOut: true}).Error())
	assert.Equal(t, "cc failed with exit code 2", (&ToolFailure{Tool: "cc", ExitCode: 2}).Error())

	inner := errors.New("not found")
	err := &ToolFailure{Tool: "csmith", Err: inner}
	assert.ErrorIs(t, err, inner)
}
