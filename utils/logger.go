/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
)

// NewLogger returns the named logger, creating it on first use. The level
// defaults to info and can be overridden per logger with LOG_LEVEL_<NAME>
// or globally with LOG_LEVEL.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.RLock()
	logger, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if ok {
		return logger
	}

	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if logger, ok = loggerRegistry[name]; ok {
		return logger
	}

	logger = logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	logger.SetLevel(levelFromEnv(name))
	loggerRegistry[name] = logger
	return logger
}

// SetLoggerLevel changes the level of the named logger.
func SetLoggerLevel(name, level string) error {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	NewLogger(name).SetLevel(parsed)
	return nil
}

func levelFromEnv(name string) logrus.Level {
	for _, key := range []string{"LOG_LEVEL_" + strings.ToUpper(name), "LOG_LEVEL"} {
		if value := os.Getenv(key); value != "" {
			if parsed, err := logrus.ParseLevel(strings.ToLower(value)); err == nil {
				return parsed
			}
		}
	}
	return logrus.InfoLevel
}
