// Package logging builds the process logger: text output on stdout plus, when
// a directory is configured, one rotating file per level.
package logging

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

func New(level, dir string, keep uint) (*logrus.Logger, error) {
	var logLevel logrus.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
	})
	log.Out = os.Stdout
	log.SetLevel(logLevel)

	if dir == "" {
		return log, nil
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	hook, err := fileHook(dir, keep)
	if err != nil {
		return nil, err
	}
	log.AddHook(hook)

	return log, nil
}

func fileHook(dir string, keep uint) (*lfshook.LfsHook, error) {
	writers := lfshook.WriterMap{}
	for _, level := range logrus.AllLevels {
		w, err := writer(dir, level.String(), keep)
		if err != nil {
			return nil, err
		}
		writers[level] = w
	}

	return lfshook.NewHook(writers, &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
	}), nil
}

func writer(dir, level string, keep uint) (*rotatelogs.RotateLogs, error) {
	base := filepath.Join(dir, level)

	return rotatelogs.New(
		base+"-%Y%m%d.log",
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(-1),
		rotatelogs.WithLinkName(base+".out"),
		rotatelogs.WithRotationCount(int(keep)),
	)
}
