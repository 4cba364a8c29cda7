package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CSVWriterTestSuite struct {
	suite.Suite
	dir    string
	writer *CSVWriter
}

func TestCSVWriterSuite(t *testing.T) {
	suite.Run(t, new(CSVWriterTestSuite))
}

func (suite *CSVWriterTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.writer = NewCSVWriter()
}

func (suite *CSVWriterTestSuite) TestWritesHeaderAndRows() {
	path := filepath.Join(suite.dir, "a", "b", "2019-01-01.csv")
	header := []string{"timestamp", "symbol", "bidPrice"}

	err := suite.writer.WriteDay(path, header, []types.Record{
		{"timestamp": "2019-01-01T00:00:00.000Z", "symbol": "XBTUSD", "bidPrice": 3700.5},
		{"timestamp": "2019-01-01T00:00:01.000Z", "symbol": "XBTUSD", "bidPrice": nil, "ignored": "x"},
	})
	suite.Require().NoError(err)

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("timestamp,symbol,bidPrice\n"+
		"2019-01-01T00:00:00.000Z,XBTUSD,3700.5\n"+
		"2019-01-01T00:00:01.000Z,XBTUSD,\n", string(content))
}

func (suite *CSVWriterTestSuite) TestQuotesFieldsWithCommas() {
	path := filepath.Join(suite.dir, "day.csv")

	err := suite.writer.WriteDay(path, []string{"timestamp", "note"}, []types.Record{
		{"timestamp": "2019-01-01T00:00:00.000Z", "note": "a,b"},
	})
	suite.Require().NoError(err)

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("timestamp,note\n2019-01-01T00:00:00.000Z,\"a,b\"\n", string(content))
}

func (suite *CSVWriterTestSuite) TestReplacesExistingFile() {
	path := filepath.Join(suite.dir, "day.csv")
	suite.Require().NoError(os.WriteFile(path, []byte("old"), 0644))

	suite.Require().NoError(suite.writer.WriteDay(path, []string{"timestamp"}, nil))

	content, err := os.ReadFile(path)
	suite.NoError(err)
	suite.Equal("timestamp\n", string(content))
	suite.noTempFiles()
}

func (suite *CSVWriterTestSuite) TestFailedRenameLeavesNoTempFile() {
	path := filepath.Join(suite.dir, "day.csv")
	// a non-empty directory cannot be replaced by a file
	suite.Require().NoError(os.MkdirAll(filepath.Join(path, "child"), 0755))

	err := suite.writer.WriteDay(path, []string{"timestamp"}, nil)
	suite.Error(err)
	suite.True(archiveErrors.IsPersistenceError(err))
	suite.DirExists(path)
	suite.noTempFiles()
}

func (suite *CSVWriterTestSuite) TestUncreatableDirectory() {
	blocker := filepath.Join(suite.dir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, nil, 0644))

	err := suite.writer.WriteDay(filepath.Join(blocker, "2019", "day.csv"), []string{"timestamp"}, nil)
	suite.Error(err)
	suite.True(archiveErrors.IsPersistenceError(err))
}

func (suite *CSVWriterTestSuite) noTempFiles() {
	matches, err := filepath.Glob(filepath.Join(suite.dir, ".*.tmp"))
	suite.NoError(err)
	suite.Empty(matches)
}
