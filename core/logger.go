/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
)

var shouldPrintTraceLogs = false
var logLevel = log.InfoLevel
var logFileObj *os.File

// InitializeLogger initializes the logger. An empty logFile writes to stdout.
func InitializeLogger(logFile string) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		var err error
		logFileObj, err = os.Create(logFile)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLogFile, err)
		}
		out = logFileObj
	}
	log.SetHandler(text.New(out))
	SetLogLevel(GetConfigStringDefault("core.log_level", "INFO"))
	return nil
}

// SetLogLevel changes the active level. Unknown levels fall back to INFO.
func SetLogLevel(level string) {
	var err error
	shouldPrintTraceLogs = false
	logLevel, err = log.ParseLevel(level)
	if err == nil {
		log.SetLevel(logLevel)
	} else if strings.EqualFold(level, "TRACE") {
		// Apex has no TRACE level: log as DEBUG, filtered here
		logLevel = log.DebugLevel
		log.SetLevel(log.DebugLevel)
		shouldPrintTraceLogs = true
	} else {
		logLevel = log.InfoLevel
		log.SetLevel(log.InfoLevel)
	}
}

// ShutdownLogger closes the log file, if any.
func ShutdownLogger() {
	if logFileObj != nil {
		logFileObj.Close()
		logFileObj = nil
	}
}

func generateLogMessage(module interface{}, components ...interface{}) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("[%v] ", module))
	for _, component := range components {
		switch v := component.(type) {
		case string:
			message.WriteString(v)
		case int:
			message.WriteString(strconv.Itoa(v))
		case int64:
			message.WriteString(strconv.FormatInt(v, 10))
		case uint:
			message.WriteString(strconv.FormatUint(uint64(v), 10))
		case uint8:
			message.WriteString(strconv.FormatUint(uint64(v), 10))
		case uint32:
			message.WriteString(strconv.FormatUint(uint64(v), 10))
		case uint64:
			message.WriteString(strconv.FormatUint(v, 10))
		case float64:
			message.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			message.WriteString(strconv.FormatBool(v))
		case error:
			message.WriteString(v.Error())
		default:
			message.WriteString(fmt.Sprintf("%v", component))
		}
	}
	return message.String()
}

// LogFatal logs a message at the FATAL level and exits.
func LogFatal(module interface{}, components ...interface{}) {
	if logLevel <= log.FatalLevel {
		log.Fatal(generateLogMessage(module, components...))
	}
}

// LogError logs a message at the ERROR level.
func LogError(module interface{}, components ...interface{}) {
	if logLevel <= log.ErrorLevel {
		log.Error(generateLogMessage(module, components...))
	}
}

// LogWarn logs a message at the WARN level.
func LogWarn(module interface{}, components ...interface{}) {
	if logLevel <= log.WarnLevel {
		log.Warn(generateLogMessage(module, components...))
	}
}

// LogInfo logs a message at the INFO level.
func LogInfo(module interface{}, components ...interface{}) {
	if logLevel <= log.InfoLevel {
		log.Info(generateLogMessage(module, components...))
	}
}

// LogDebug logs a message at the DEBUG level.
func LogDebug(module interface{}, components ...interface{}) {
	if logLevel <= log.DebugLevel {
		log.Debug(generateLogMessage(module, components...))
	}
}

// LogTrace logs a message at the TRACE level (really just additional DEBUG messages).
func LogTrace(module interface{}, components ...interface{}) {
	if shouldPrintTraceLogs {
		log.Debug(generateLogMessage(module, components...))
	}
}
