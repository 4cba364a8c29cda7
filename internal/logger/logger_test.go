package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.True(logger.Core().Enabled(zapcore.InfoLevel))
	suite.False(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel("debug")
	suite.Require().NoError(err)
	suite.True(logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLoggerWithLevel("verbose")
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestParseLevel() {
	testCases := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{input: "", expected: zapcore.InfoLevel},
		{input: "INFO", expected: zapcore.InfoLevel},
		{input: "debug", expected: zapcore.DebugLevel},
		{input: "warning", expected: zapcore.WarnLevel},
		{input: " error ", expected: zapcore.ErrorLevel},
		{input: "trace", expected: zapcore.InfoLevel, wantErr: true},
	}

	for _, tc := range testCases {
		suite.Run(tc.input, func() {
			level, err := ParseLevel(tc.input)
			if tc.wantErr {
				suite.Error(err)
			} else {
				suite.NoError(err)
			}
			suite.Equal(tc.expected, level)
		})
	}
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	// Sync should not panic and should return nil for a nil inner logger
	err := logger.Sync()
	suite.NoError(err)
}

func (suite *LoggerTestSuite) TestLoggerLogging() {
	logger, err := NewLogger()
	suite.NoError(err)

	// These should not panic
	logger.Info("test info message")
	logger.Debug("test debug message")
	logger.Warn("test warn message")
	logger.Error("test error message")
	logger.With().Info("test message with fields")
}
