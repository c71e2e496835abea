package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// RawWriter is a mock implementation of store.RawWriter
type RawWriter struct {
	mock.Mock
}

func (m *RawWriter) Insert(ctx context.Context, table string, row map[string]any) error {
	args := m.Called(ctx, table, row)
	return args.Error(0)
}

func (m *RawWriter) Patch(ctx context.Context, table, id string, fields map[string]any) error {
	args := m.Called(ctx, table, id, fields)
	return args.Error(0)
}

func (m *RawWriter) Delete(ctx context.Context, table, id string) error {
	args := m.Called(ctx, table, id)
	return args.Error(0)
}

func (m *RawWriter) RPC(ctx context.Context, fn string, args map[string]any) error {
	called := m.Called(ctx, fn, args)
	return called.Error(0)
}
