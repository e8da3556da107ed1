package harmonic

import (
	"github.com/sirupsen/logrus"

	"gopulse/thresholds"
)

// LoadThresholds replaces the plausible range with the one found in the
// threshold table for sex, age and alpha. On error the previous range is kept
// and the error can be classified with thresholds.CodeOf.
func (p *Processor) LoadThresholds(fileName string, sex thresholds.Sex, age int, alpha thresholds.Alpha) error {
	r, err := thresholds.Load(fileName, sex, age, alpha)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"file": fileName,
			"code": thresholds.CodeOf(err),
		}).Warn("can not find appropriate threshold record")
		return err
	}

	p.log.WithFields(logrus.Fields{
		"low":  r.Low,
		"high": r.High,
	}).Info("loaded plausible heart rate range")

	p.SetThresholds(r.Low, r.High)
	return nil
}
