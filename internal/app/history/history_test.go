package history_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/rtboot/internal/app/history"
	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/model"
	"github.com/slok/rtboot/internal/storage"
	"github.com/slok/rtboot/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config history.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: history.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},
		"missing repository should fail": {
			config: history.ServiceConfig{
				Logger: log.Noop,
			},
			expErr: true,
		},
		"nil logger should default to noop": {
			config: history.ServiceConfig{
				Repository: &storagemock.MockRepository{},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := history.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestServiceRun(t *testing.T) {
	succeeded := model.BuildStatusSucceeded
	unknown := model.BuildStatus("running")

	builds := []model.Build{
		{ID: "b3", Status: model.BuildStatusFailed},
		{ID: "b2", Status: model.BuildStatusSucceeded},
		{ID: "b1", Status: model.BuildStatusSucceeded},
	}

	tests := map[string]struct {
		req       history.Request
		mock      func(m *storagemock.MockRepository)
		expBuilds []model.Build
		expErr    bool
	}{
		"no filters should list every build": {
			req: history.Request{},
			mock: func(m *storagemock.MockRepository) {
				m.On("ListBuilds", mock.Anything, storage.ListBuildsOpts{}).Once().Return(builds, nil)
			},
			expBuilds: builds,
		},
		"filters should be passed to the repository": {
			req: history.Request{RecipeName: "app", StatusFilter: &succeeded},
			mock: func(m *storagemock.MockRepository) {
				m.On("ListBuilds", mock.Anything, storage.ListBuildsOpts{RecipeName: "app", Status: model.BuildStatusSucceeded}).Once().Return(builds[1:], nil)
			},
			expBuilds: builds[1:],
		},
		"limit should keep the newest builds": {
			req: history.Request{Limit: 2},
			mock: func(m *storagemock.MockRepository) {
				m.On("ListBuilds", mock.Anything, storage.ListBuildsOpts{}).Once().Return(builds, nil)
			},
			expBuilds: builds[:2],
		},
		"unknown status should fail": {
			req:    history.Request{StatusFilter: &unknown},
			mock:   func(m *storagemock.MockRepository) {},
			expErr: true,
		},
		"negative limit should fail": {
			req:    history.Request{Limit: -1},
			mock:   func(m *storagemock.MockRepository) {},
			expErr: true,
		},
		"repository error should fail": {
			req: history.Request{},
			mock: func(m *storagemock.MockRepository) {
				m.On("ListBuilds", mock.Anything, mock.Anything).Once().Return(nil, fmt.Errorf("something"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mRepo := storagemock.NewMockRepository(t)
			test.mock(mRepo)

			svc, err := history.NewService(history.ServiceConfig{Repository: mRepo})
			require.NoError(err)

			got, err := svc.Run(context.TODO(), test.req)

			if test.expErr {
				assert.Error(err)
			} else if assert.NoError(err) {
				assert.Equal(test.expBuilds, got)
			}
		})
	}
}
