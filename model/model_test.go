package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockMatchesBySubstring(t *testing.T) {
	m := NewMock("test-model").
		AddResponse("plan the trip", `[{"description":"book flight"}]`).
		SetDefault("fallback")

	resp, err := m.Generate(context.Background(), Request{Prompt: "please plan the trip to Oslo"})
	require.NoError(t, err)
	assert.Equal(t, `[{"description":"book flight"}]`, resp.Content)

	resp, err = m.Generate(context.Background(), Request{Prompt: "something else"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Content)

	assert.Equal(t, 2, m.CallCount())
	require.NotNil(t, m.LastRequest())
	assert.Equal(t, "something else", m.LastRequest().Prompt)
}

func TestMockWithoutDefaultErrors(t *testing.T) {
	m := NewMock("test-model")
	_, err := m.Generate(context.Background(), Request{Prompt: "anything"})
	assert.Error(t, err)
}

func TestMockSetError(t *testing.T) {
	m := NewMock("test-model").SetDefault("ok")
	m.SetError(errors.New("model offline"))

	_, err := m.Generate(context.Background(), Request{Prompt: "anything"})
	require.EqualError(t, err, "model offline")
}

func TestMockHonorsContextCancellation(t *testing.T) {
	m := NewMock("test-model").SetDefault("ok")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Prompt: "anything"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.CallCount())
}

func TestMockInfo(t *testing.T) {
	m := NewMock("test-model")
	info := m.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
}
