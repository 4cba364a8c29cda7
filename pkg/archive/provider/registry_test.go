package provider

import (
	"testing"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestGetSupportedSources() {
	suite.Equal([]string{"api", "dump"}, GetSupportedSources())
}

func (suite *RegistryTestSuite) TestGetSourceInfo() {
	info, err := GetSourceInfo("dump")
	suite.NoError(err)
	suite.Equal("dump", info.Name)
	suite.NotContains(info.Channels, types.ChannelBars)

	// registry channels agree with what the sources serve
	for _, channel := range info.Channels {
		suite.True(NewDumpSource(DumpConfig{}, nil).Supports(channel))
	}

	_, err = GetSourceInfo("websocket")
	suite.Error(err)
	suite.True(archiveErrors.IsConfigurationError(err))
}
