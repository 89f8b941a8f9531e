package logsvc

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/medatlas/medatlas/core"
)

// NewLogrus returns the process logger: JSON in production, text otherwise.
func NewLogrus(conf *core.Config, out ...io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if len(out) > 0 {
		log.SetOutput(out[0])
	}

	if conf.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if conf.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
