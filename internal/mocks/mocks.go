package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"board-service/internal/geoip"
	"board-service/internal/models"
	"board-service/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	args := m.Called(ctx, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountMessages(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type GeoClientMock struct {
	mock.Mock
}

func (m *GeoClientMock) Lookup(ctx context.Context, ip string) geoip.Location {
	args := m.Called(ctx, ip)
	var loc geoip.Location
	if val := args.Get(0); val != nil {
		loc = val.(geoip.Location)
	}
	return loc
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ geoip.Client = (*GeoClientMock)(nil)
