// Package logger is the engine's zap facade. Grid code logs through the
// package helpers; hosts that want the output merged into their own zap
// tree install a logger with Use. Before any logger is installed the
// helpers degrade to the standard library so early errors are not lost.
package logger

import (
	"fmt"
	"log"
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.RWMutex
	base *zap.SugaredLogger
)

// Init builds the default logger: console output when dev is true, JSON
// production output to gridspec.log otherwise. The logger is named so
// engine lines are attributable when a host merges its own output in.
func Init(dev bool) {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"gridspec.log"}
	}

	built, err := cfg.Build()
	if err != nil {
		log.Print(err)
		return
	}
	Use(built.Sugar().Named("gridspec"))
}

// Use installs the logger the package helpers write to.
func Use(l *zap.SugaredLogger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Info(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Infof(template, args...)
		return
	}
	log.Printf(template, args...)
}

func Warn(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warnf(template, args...)
		return
	}
	log.Printf(template, args...)
}

func Error(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Errorf(template, args...)
		return
	}
	log.Printf(template, args...)
}

func Debug(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debugf(template, args...)
		return
	}
	log.Printf(template, args...)
}

// Structured variants carry key-value context (table identity, query
// ids) instead of burying it in the message text.

func Infow(msg string, keysAndValues ...interface{}) {
	if l := current(); l != nil {
		l.Infow(msg, keysAndValues...)
		return
	}
	log.Print(msg, sprintKV(keysAndValues))
}

func Warnw(msg string, keysAndValues ...interface{}) {
	if l := current(); l != nil {
		l.Warnw(msg, keysAndValues...)
		return
	}
	log.Print(msg, sprintKV(keysAndValues))
}

func Errorw(msg string, keysAndValues ...interface{}) {
	if l := current(); l != nil {
		l.Errorw(msg, keysAndValues...)
		return
	}
	log.Print(msg, sprintKV(keysAndValues))
}

func sprintKV(keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return ""
	}
	return fmt.Sprintf(" %v", keysAndValues)
}
