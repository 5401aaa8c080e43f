package store

import (
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadAll(partition string) ([]byte, error) {
	args := m.Called(partition)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SaveAll(partition string, data []byte) error {
	args := m.Called(partition, data)
	return args.Error(0)
}
